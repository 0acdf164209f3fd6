// Package docs holds the OpenAPI description served at /docs. Regenerate
// with `swag init -g cmd/server/main.go -o internal/http/docs` after changing
// handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "description": "Always 200 while the process serves HTTP. The bot field carries the operator-set status; status turns \"degraded\" when the database does not answer.",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness check",
                "operationId": "health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.HealthResponse"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/stats": {
            "get": {
                "description": "Bot identity from Telegram, stored usage aggregates and process figures.",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Bot statistics",
                "operationId": "stats",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.StatsResponse"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Stats unavailable", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/webhook": {
            "post": {
                "description": "Accepts one update pushed by Telegram and queues it for processing. Updates the bot does not handle are acknowledged and dropped. A full queue answers 503 so Telegram redelivers.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Webhook"],
                "summary": "Receive a Telegram update",
                "operationId": "receiveUpdate",
                "parameters": [
                    {"type": "string", "description": "Secret configured with setWebhook", "name": "X-Telegram-Bot-Api-Secret-Token", "in": "header"},
                    {"description": "Telegram Update object", "name": "body", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.WebhookAck"}},
                    "400": {"description": "Body is not a JSON object", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "403": {"description": "Secret token mismatch", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "405": {"description": "Method not allowed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "413": {"description": "Body too large", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "503": {"description": "Update queue is full", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.BotIdentity": {
            "type": "object",
            "properties": {
                "first_name": {"type": "string", "example": "LicenseChain"},
                "id": {"type": "integer", "example": 123456789},
                "username": {"type": "string", "example": "LicenseChainBot"}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"description": "Stable, machine-readable code (see errors.go)", "type": "string", "example": "queue_full"},
                "message": {"description": "Human-readable message", "type": "string", "example": "update queue is full"},
                "request_id": {"description": "Correlates server logs and client errors", "type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"}
            }
        },
        "handlers.HealthResponse": {
            "type": "object",
            "properties": {
                "bot": {"description": "Bot is the operator-set status: online, offline, maintenance or restart.", "type": "string", "example": "online"},
                "database": {"description": "Database is \"ok\" or \"unavailable\"; omitted when no database is wired.", "type": "string", "example": "ok"},
                "mode": {"type": "string", "example": "webhook"},
                "status": {"description": "Status is \"healthy\", or \"degraded\" when the database does not answer.", "type": "string", "example": "healthy"},
                "timestamp": {"type": "string", "example": "2024-05-01T12:00:00Z"},
                "uptime": {"description": "Uptime is in seconds.", "type": "number", "example": 3600.5},
                "version": {"type": "string", "example": "1.0.0"}
            }
        },
        "handlers.MemoryStats": {
            "type": "object",
            "properties": {
                "heap_alloc_mb": {"type": "number"},
                "host_total_mb": {"type": "number"},
                "host_used_mb": {"type": "number"},
                "host_used_percent": {"type": "number"}
            }
        },
        "handlers.StatsResponse": {
            "type": "object",
            "properties": {
                "bot": {"$ref": "#/definitions/handlers.BotIdentity"},
                "commands": {"type": "integer", "example": 1024},
                "goroutines": {"type": "integer", "example": 24},
                "licenses": {"type": "integer", "example": 17},
                "memory": {"$ref": "#/definitions/handlers.MemoryStats"},
                "open_tickets": {"type": "integer", "example": 3},
                "uptime": {"type": "number", "example": 3600.5},
                "users": {"type": "integer", "example": 42},
                "validations": {"type": "integer", "example": 256}
            }
        },
        "handlers.WebhookAck": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean", "example": true}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "LicenseChain Telegram Bot",
	Description:      "Webhook receiver and operational endpoints of the LicenseChain Telegram bot.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
