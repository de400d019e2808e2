package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable API",
        "description": "Weekly timetable service with an atomic recommendation apply engine",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Recommendations", "description": "Apply validated assignment moves"},
        {"name": "Timetable", "description": "Weekly grid reads and exports"},
        {"name": "Catalog", "description": "Reference data listings"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unreachable"}
                }
            }
        },
        "/api/v1/recommendations/apply": {
            "post": {
                "tags": ["Recommendations"],
                "summary": "Apply a recommendation atomically",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApplyRecommendationRequest"}}
                ],
                "responses": {
                    "200": {"description": "Applied", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Malformed payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Assignment changed since validation", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Constraint violations", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Schedule store unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetable/sections/{id}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Weekly timetable of a section",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetable/sections/{id}/export": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Export a section timetable as CSV or PDF",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File attachment"}
                }
            }
        },
        "/api/v1/timetable/teachers/{id}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Weekly timetable of a teacher",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetable/rooms/{id}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Weekly timetable of a room",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/teachers": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List teachers",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/teachers/{id}/availability": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List availability rows of a teacher",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/rooms": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List rooms",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/slots": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List weekly slots",
                "parameters": [
                    {"name": "clusterId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/courses": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List courses",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/sections": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List sections",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/offerings": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List offerings",
                "parameters": [
                    {"name": "courseId", "in": "query", "type": "string"},
                    {"name": "sectionId", "in": "query", "type": "string"},
                    {"name": "teacherId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/offerings/{id}/assignments": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List session assignments of an offering",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/offerings/{id}/assignments/{kind}/lock": {
            "put": {
                "tags": ["Catalog"],
                "summary": "Lock or unlock an assignment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "kind", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LockRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        }
    },
    "definitions": {
        "AssignmentMoveRequest": {
            "type": "object",
            "properties": {
                "offering_id": {"type": "string"},
                "kind": {"type": "string", "enum": ["LECTURE", "TUTORIAL", "PRACTICAL"]},
                "slot_id": {"type": "string"},
                "room_id": {"type": "string"}
            },
            "required": ["offering_id", "kind", "slot_id"]
        },
        "ApplyRecommendationRequest": {
            "type": "object",
            "properties": {
                "target": {"$ref": "#/definitions/AssignmentMoveRequest"},
                "swaps": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/AssignmentMoveRequest"}
                }
            },
            "required": ["target"]
        },
        "Violation": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "offering_id": {"type": "string"},
                "session_kind": {"type": "string"},
                "slot_id": {"type": "string"},
                "room_id": {"type": "string"},
                "teacher_id": {"type": "string"},
                "conflict_offering_id": {"type": "string"},
                "conflict_kind": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "LockRequest": {
            "type": "object",
            "properties": {
                "locked": {"type": "boolean"}
            }
        },
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
