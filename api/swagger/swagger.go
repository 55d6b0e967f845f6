package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable Planner API",
        "description": "Weekly school timetable generation and teacher workload reporting",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Timetable", "description": "Lesson generation and workload"},
        {"name": "Ops", "description": "Liveness, readiness and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Ops"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Ops"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unreachable"}
                }
            }
        },
        "/timetable/generate": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Generate the weekly timetable of a term",
                "description": "Omitting termId targets the latest term by year then term number. Shortfalls are reported as warnings.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}},
                    {"name": "async", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "Generated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Term not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Generation already running or slot conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "No term available", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/runs/{id}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Get a background generation run",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown or expired run", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/terms/{id}/workload": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Teacher workload for a term",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Term not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "GenerateTimetableRequest": {
            "type": "object",
            "properties": {
                "termId": {"type": "string"},
                "clearExisting": {"type": "boolean"},
                "seed": {"type": "integer", "format": "int64"},
                "async": {"type": "boolean"}
            }
        },
        "GenerationWarning": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["MISSING_QUALIFIED_TEACHER", "MISSING_OFFERING", "UNMET_QUOTA"]},
                "message": {"type": "string"},
                "meta": {"type": "object"}
            }
        },
        "Lesson": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "term_id": {"type": "string"},
                "class_id": {"type": "string"},
                "subject_id": {"type": "string"},
                "teacher_id": {"type": "string"},
                "day": {"type": "string", "enum": ["Monday", "Tuesday", "Wednesday", "Thursday", "Friday"]},
                "time_slot_id": {"type": "string"}
            }
        },
        "GenerateTimetableResponse": {
            "type": "object",
            "properties": {
                "termId": {"type": "string"},
                "termLabel": {"type": "string"},
                "seed": {"type": "integer", "format": "int64"},
                "cleared": {"type": "integer"},
                "placed": {"type": "integer"},
                "lessons": {"type": "array", "items": {"$ref": "#/definitions/Lesson"}},
                "warnings": {"type": "array", "items": {"$ref": "#/definitions/GenerationWarning"}}
            }
        },
        "GenerationRun": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "status": {"type": "string", "enum": ["QUEUED", "RUNNING", "SUCCEEDED", "FAILED"]},
                "request": {"$ref": "#/definitions/GenerateTimetableRequest"},
                "result": {"$ref": "#/definitions/GenerateTimetableResponse"},
                "error": {"type": "string"},
                "attempts": {"type": "integer"}
            }
        },
        "TeacherWorkload": {
            "type": "object",
            "properties": {
                "teacher_id": {"type": "string"},
                "teacher_name": {"type": "string"},
                "periods": {"type": "integer"}
            }
        },
        "WorkloadResponse": {
            "type": "object",
            "properties": {
                "termId": {"type": "string"},
                "teachers": {"type": "array", "items": {"$ref": "#/definitions/TeacherWorkload"}},
                "total": {"type": "integer"}
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
