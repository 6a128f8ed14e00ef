package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "HQHQ Web API",
        "description": "Record intake, admin review and leaderboard backend for the HQHQ site",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Leaderboard", "description": "Accepted records by category"},
        {"name": "Submissions", "description": "Record form and intake"},
        {"name": "Admin Session", "description": "Review console login lifecycle"},
        {"name": "Review", "description": "Pending submission moderation"}
    ],
    "paths": {
        "/leaderboard": {
            "get": {
                "tags": ["Leaderboard"],
                "summary": "Filtered leaderboard",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "tab", "in": "query", "type": "string", "enum": ["HQ", "SDC", "SMHQ"]},
                    {"name": "players", "in": "query", "type": "string", "description": "e.g. 2 Player; 0 Player disables the filter"},
                    {"name": "version", "in": "query", "type": "string", "description": "e.g. v69; v0 disables the filter"},
                    {"name": "moon", "in": "query", "type": "string", "description": "Moon name; moon disables the filter"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid filter", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Feed unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/leaderboard/export": {
            "get": {
                "tags": ["Leaderboard"],
                "summary": "Export the filtered leaderboard",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "tab", "in": "query", "type": "string"},
                    {"name": "players", "in": "query", "type": "string"},
                    {"name": "version", "in": "query", "type": "string"},
                    {"name": "moon", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "400": {"description": "Invalid filter or format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/submissions/options": {
            "get": {
                "tags": ["Submissions"],
                "summary": "Record form options",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/submissions": {
            "post": {
                "tags": ["Submissions"],
                "summary": "Submit a record",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "discord_joined", "in": "formData", "type": "string", "required": true, "enum": ["yes", "no"]},
                    {"name": "discord_handle", "in": "formData", "type": "string", "required": true},
                    {"name": "team_members", "in": "formData", "type": "string", "required": true, "description": "JSON array of nicknames"},
                    {"name": "category", "in": "formData", "type": "string", "required": true, "enum": ["high_quota", "single_day_clear", "single_moon_hq"]},
                    {"name": "moon", "in": "formData", "type": "string"},
                    {"name": "version", "in": "formData", "type": "string", "required": true},
                    {"name": "single_day_earnings", "in": "formData", "type": "integer"},
                    {"name": "quota_achieved", "in": "formData", "type": "integer"},
                    {"name": "quota_reached", "in": "formData", "type": "integer"},
                    {"name": "quota_filled", "in": "formData", "type": "integer"},
                    {"name": "video_links", "in": "formData", "type": "string", "description": "JSON array of link arrays per active member"},
                    {"name": "vlog_files_0", "in": "formData", "type": "file", "description": "Logs of the first active member; vlog_files_1..3 follow"}
                ],
                "responses": {
                    "201": {"description": "Accepted upstream", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Field errors in meta.fields", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "Upload too large", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Rejected upstream", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Upstream unreachable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/login": {
            "post": {
                "tags": ["Admin Session"],
                "summary": "Log in to the review console",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Session handle", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Login failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/session": {
            "get": {
                "tags": ["Admin Session"],
                "summary": "Check a stored session handle",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Authenticated flag", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/logout": {
            "post": {
                "tags": ["Admin Session"],
                "summary": "Log out of the review console",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "Logged out"},
                    "401": {"description": "No session", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/submissions": {
            "get": {
                "tags": ["Review"],
                "summary": "List pending submissions",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "category", "in": "query", "type": "string", "description": "Category or All"},
                    {"name": "refresh", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "Review rows", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Session expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/submissions/refresh": {
            "post": {
                "tags": ["Review"],
                "summary": "Reload pending submissions",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Review rows", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Upstream unreachable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/submissions/{id}/vlog/toggle": {
            "post": {
                "tags": ["Review"],
                "summary": "Expand or collapse a submission's logs",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Toggle result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not pending", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/submissions/{id}/vlog/{player}/download": {
            "get": {
                "tags": ["Review"],
                "summary": "Download one player's log",
                "security": [{"BearerAuth": []}],
                "produces": ["text/plain"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "player", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "404": {"description": "No such log", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/submissions/{id}/decision": {
            "post": {
                "tags": ["Review"],
                "summary": "Open the confirmation step for a decision",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DecisionRequest"}}
                ],
                "responses": {
                    "200": {"description": "Decision intent", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not pending", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/decision/confirm": {
            "post": {
                "tags": ["Review"],
                "summary": "Confirm the open decision",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/ConfirmDecisionRequest"}}
                ],
                "responses": {
                    "200": {"description": "Decision result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Rejection reason missing", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "No open decision", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Rejected upstream", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/decision": {
            "delete": {
                "tags": ["Review"],
                "summary": "Close the confirmation step",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "Closed"}
                }
            }
        },
        "/admin/leaderboard/refresh": {
            "post": {
                "tags": ["Leaderboard"],
                "summary": "Drop the cached leaderboard feed",
                "description": "Invalidates the cached feed and schedules a background reload when warming is enabled",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "Cache dropped"},
                    "401": {"description": "No session", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["password"],
            "properties": {
                "password": {"type": "string"}
            }
        },
        "DecisionRequest": {
            "type": "object",
            "required": ["approved"],
            "properties": {
                "approved": {"type": "boolean"}
            }
        },
        "ConfirmDecisionRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            }
        },
        "FieldError": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
