package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CBC Admin API",
        "description": "School administration backend for CBC primary schools",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Login, token refresh and session management"},
        {"name": "Learners", "description": "Learner roster management"},
        {"name": "Teachers", "description": "Staff accounts"},
        {"name": "Parents", "description": "Guardian contacts and WhatsApp links"},
        {"name": "Attendance", "description": "Daily attendance marking and reports"},
        {"name": "Assessments", "description": "Competency and core value rating sheets"},
        {"name": "Transfers", "description": "Learner transfer workflow"},
        {"name": "Documents", "description": "File uploads with signed download links"},
        {"name": "Notifications", "description": "Announcements fanned out to parents"},
        {"name": "Timetable", "description": "Weekly class timetable slots"},
        {"name": "Reports", "description": "Aggregates and CSV/PDF exports"}
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate with email and password",
                "responses": {
                    "200": {"description": "Token pair", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate a refresh token",
                "responses": {
                    "200": {"description": "New token pair"},
                    "401": {"description": "Revoked or expired token"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current user profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Profile"}
                }
            }
        },
        "/learners": {
            "get": {
                "tags": ["Learners"],
                "summary": "List learners with filters and pagination",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Paginated learners", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Learners"],
                "summary": "Admit a learner",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Validation failure"}
                }
            }
        },
        "/learners/{id}": {
            "get": {
                "tags": ["Learners"],
                "summary": "Learner detail with guardians",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "Learner"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/attendance/bulk": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Mark a whole class, filling unlisted learners as present",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Marked count"}
                }
            }
        },
        "/assessments/{learnerId}": {
            "get": {
                "tags": ["Assessments"],
                "summary": "Rating sheet for a learner and period",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "learnerId", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "Sheet with one row per dimension"}
                }
            }
        },
        "/transfers/{id}/review": {
            "post": {
                "tags": ["Transfers"],
                "summary": "Approve or reject a pending transfer",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "Reviewed"},
                    "409": {"description": "Already reviewed"}
                }
            }
        },
        "/documents/download": {
            "get": {
                "tags": ["Documents"],
                "summary": "Download a document with a signed token",
                "parameters": [{"name": "token", "in": "query", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "File stream"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        },
        "/announcements": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Broadcast an announcement to parents",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Queued for delivery"}
                }
            }
        },
        "/reports/attendance/export": {
            "get": {
                "tags": ["Reports"],
                "summary": "Export a class day report as CSV or PDF",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "File attachment"}
                }
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
