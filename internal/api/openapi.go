package api

// Spec OpenAPI minimal en JSON para Swagger.
const openAPISpec = `{
  "openapi": "3.0.0",
  "info": {
    "title": "Clubhouse Reservations API",
    "version": "1.0.0"
  },
  "components": {
    "securitySchemes": {
      "UserHeader": { "type": "apiKey", "in": "header", "name": "X-User-Id" }
    },
    "parameters": {
      "Id": {
        "name": "id",
        "in": "path",
        "required": true,
        "schema": { "type": "string", "format": "uuid" }
      }
    },
    "schemas": {
      "HealthResponse": {
        "type": "object",
        "properties": { "status": { "type": "string" } }
      },
      "ErrorResponse": {
        "type": "object",
        "properties": {
          "error": { "type": "string" },
          "code": { "type": "string" },
          "field": { "type": "string" },
          "conflicts": { "type": "array", "items": { "$ref": "#/components/schemas/Block" } }
        }
      },
      "TimeWindow": {
        "type": "object",
        "properties": {
          "start": { "type": "string", "format": "date-time" },
          "end": { "type": "string", "format": "date-time" }
        }
      },
      "Block": {
        "type": "object",
        "properties": {
          "kind": { "type": "string", "enum": ["reservation", "academy"] },
          "referenceId": { "type": "string", "format": "uuid" },
          "window": { "$ref": "#/components/schemas/TimeWindow" }
        }
      },
      "CreateReservationRequest": {
        "type": "object",
        "required": ["areaId", "startsAt", "endsAt"],
        "properties": {
          "areaId": { "type": "string", "format": "uuid" },
          "startsAt": { "type": "string", "format": "date-time" },
          "endsAt": { "type": "string", "format": "date-time" },
          "title": { "type": "string" },
          "notes": { "type": "string" }
        }
      },
      "UpdateReservationRequest": {
        "type": "object",
        "properties": {
          "startsAt": { "type": "string", "format": "date-time" },
          "endsAt": { "type": "string", "format": "date-time" },
          "title": { "type": "string" },
          "notes": { "type": "string" }
        }
      },
      "ReasonRequest": {
        "type": "object",
        "properties": { "reason": { "type": "string" } }
      },
      "ReservationResponse": {
        "type": "object",
        "properties": {
          "id": { "type": "string", "format": "uuid" },
          "requesterId": { "type": "string", "format": "uuid" },
          "areaId": { "type": "string", "format": "uuid" },
          "startsAtUtc": { "type": "string", "format": "date-time" },
          "endsAtUtc": { "type": "string", "format": "date-time" },
          "status": { "type": "string", "enum": ["Pendiente", "Aprobada", "Rechazada", "Cancelada", "Completada", "Expirada"] },
          "title": { "type": "string" },
          "notes": { "type": "string" },
          "decisionReason": { "type": "string" },
          "approvedBy": { "type": "string", "format": "uuid" },
          "reviewedAtUtc": { "type": "string", "format": "date-time" },
          "paymentStatus": { "type": "string" },
          "invoiceId": { "type": "string", "format": "uuid" },
          "cost": { "type": "string" },
          "currency": { "type": "string" },
          "areaName": { "type": "string" },
          "requesterName": { "type": "string" }
        }
      },
      "AvailabilityResponse": {
        "type": "object",
        "properties": {
          "area": {
            "type": "object",
            "properties": {
              "id": { "type": "string", "format": "uuid" },
              "name": { "type": "string" },
              "currency": { "type": "string" }
            }
          },
          "range": { "$ref": "#/components/schemas/TimeWindow" },
          "slotMinutes": { "type": "integer" },
          "operatingHours": { "type": "array", "items": { "$ref": "#/components/schemas/TimeWindow" } },
          "blocks": { "type": "array", "items": { "$ref": "#/components/schemas/Block" } },
          "freeSlots": { "type": "array", "items": { "$ref": "#/components/schemas/TimeWindow" } }
        }
      },
      "QuoteResponse": {
        "type": "object",
        "properties": {
          "baseCost": { "type": "string" },
          "discount": { "type": "string" },
          "finalCost": { "type": "string" },
          "currency": { "type": "string" },
          "hours": { "type": "number" }
        }
      }
    },
    "responses": {
      "Reservation": {
        "description": "Reservation",
        "content": { "application/json": { "schema": { "$ref": "#/components/schemas/ReservationResponse" } } }
      },
      "Error": {
        "description": "Failure",
        "content": { "application/json": { "schema": { "$ref": "#/components/schemas/ErrorResponse" } } }
      }
    }
  },
  "security": [{ "UserHeader": [] }],
  "paths": {
    "/health": {
      "get": {
        "summary": "Health check",
        "security": [],
        "responses": {
          "200": {
            "description": "Service is healthy",
            "content": { "application/json": { "schema": { "$ref": "#/components/schemas/HealthResponse" } } }
          }
        }
      }
    },
    "/reservations": {
      "post": {
        "summary": "Request a reservation",
        "requestBody": {
          "required": true,
          "content": { "application/json": { "schema": { "$ref": "#/components/schemas/CreateReservationRequest" } } }
        },
        "responses": {
          "201": { "$ref": "#/components/responses/Reservation" },
          "400": { "$ref": "#/components/responses/Error" },
          "404": { "$ref": "#/components/responses/Error" },
          "409": { "$ref": "#/components/responses/Error" }
        }
      }
    },
    "/reservations/{id}": {
      "parameters": [{ "$ref": "#/components/parameters/Id" }],
      "get": {
        "summary": "Get reservation",
        "responses": {
          "200": { "$ref": "#/components/responses/Reservation" },
          "403": { "$ref": "#/components/responses/Error" },
          "404": { "$ref": "#/components/responses/Error" }
        }
      },
      "patch": {
        "summary": "Update a pending reservation",
        "requestBody": {
          "required": true,
          "content": { "application/json": { "schema": { "$ref": "#/components/schemas/UpdateReservationRequest" } } }
        },
        "responses": {
          "200": { "$ref": "#/components/responses/Reservation" },
          "400": { "$ref": "#/components/responses/Error" },
          "403": { "$ref": "#/components/responses/Error" },
          "409": { "$ref": "#/components/responses/Error" }
        }
      }
    },
    "/reservations/{id}/cancel": {
      "parameters": [{ "$ref": "#/components/parameters/Id" }],
      "post": {
        "summary": "Cancel a reservation",
        "requestBody": {
          "content": { "application/json": { "schema": { "$ref": "#/components/schemas/ReasonRequest" } } }
        },
        "responses": {
          "200": { "$ref": "#/components/responses/Reservation" },
          "400": { "$ref": "#/components/responses/Error" },
          "403": { "$ref": "#/components/responses/Error" },
          "409": { "$ref": "#/components/responses/Error" }
        }
      }
    },
    "/reservations/{id}/approve": {
      "parameters": [{ "$ref": "#/components/parameters/Id" }],
      "post": {
        "summary": "Approve a pending reservation (admin)",
        "responses": {
          "200": { "$ref": "#/components/responses/Reservation" },
          "403": { "$ref": "#/components/responses/Error" },
          "409": { "$ref": "#/components/responses/Error" }
        }
      }
    },
    "/reservations/{id}/reject": {
      "parameters": [{ "$ref": "#/components/parameters/Id" }],
      "post": {
        "summary": "Reject a pending reservation (admin)",
        "requestBody": {
          "content": { "application/json": { "schema": { "$ref": "#/components/schemas/ReasonRequest" } } }
        },
        "responses": {
          "200": { "$ref": "#/components/responses/Reservation" },
          "403": { "$ref": "#/components/responses/Error" },
          "409": { "$ref": "#/components/responses/Error" }
        }
      }
    },
    "/areas/{id}/availability": {
      "parameters": [{ "$ref": "#/components/parameters/Id" }],
      "get": {
        "summary": "Free slots of an area",
        "security": [],
        "parameters": [
          { "name": "from", "in": "query", "required": true, "schema": { "type": "string", "format": "date" } },
          { "name": "to", "in": "query", "schema": { "type": "string", "format": "date" } },
          { "name": "slot_minutes", "in": "query", "schema": { "type": "integer" } }
        ],
        "responses": {
          "200": {
            "description": "Availability",
            "content": { "application/json": { "schema": { "$ref": "#/components/schemas/AvailabilityResponse" } } }
          },
          "400": { "$ref": "#/components/responses/Error" },
          "404": { "$ref": "#/components/responses/Error" }
        }
      }
    },
    "/areas/{id}/quote": {
      "parameters": [{ "$ref": "#/components/parameters/Id" }],
      "get": {
        "summary": "Price a prospective reservation",
        "parameters": [
          { "name": "starts_at", "in": "query", "required": true, "schema": { "type": "string", "format": "date-time" } },
          { "name": "ends_at", "in": "query", "required": true, "schema": { "type": "string", "format": "date-time" } }
        ],
        "responses": {
          "200": {
            "description": "Quote",
            "content": { "application/json": { "schema": { "$ref": "#/components/schemas/QuoteResponse" } } }
          },
          "400": { "$ref": "#/components/responses/Error" }
        }
      }
    }
  }
}`
