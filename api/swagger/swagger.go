package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Completion Report API",
        "description": "Module completion reporting and export service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and identity"},
        {"name": "Filters", "description": "Saved report filters and pickers"},
        {"name": "Reports", "description": "Aggregated completion reports"},
        {"name": "Exports", "description": "Direct downloads and background export jobs"},
        {"name": "Settings", "description": "Report settings and catalogs"}
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
                    "200": {"description": "Ready"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Get current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/filters": {
            "get": {
                "tags": ["Filters"],
                "summary": "List own saved filters",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Filters"],
                "summary": "Create a saved filter",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FilterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"}
                }
            }
        },
        "/filters/{id}": {
            "get": {
                "tags": ["Filters"],
                "summary": "Get a saved filter",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Filter not found"}
                }
            },
            "put": {
                "tags": ["Filters"],
                "summary": "Update a saved filter",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FilterRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Filter not found"}
                }
            },
            "delete": {
                "tags": ["Filters"],
                "summary": "Delete a saved filter",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Filter not found"}
                }
            }
        },
        "/filters/{id}/duplicate": {
            "post": {
                "tags": ["Filters"],
                "summary": "Duplicate a saved filter",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Filter not found"}
                }
            }
        },
        "/filters/search/users": {
            "get": {
                "tags": ["Filters"],
                "summary": "Search users for the filter form",
                "parameters": [
                    {"name": "q", "in": "query", "required": true, "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/filters/search/cohorts": {
            "get": {
                "tags": ["Filters"],
                "summary": "Search cohorts for the filter form",
                "parameters": [
                    {"name": "q", "in": "query", "required": true, "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/filters/search/courses": {
            "get": {
                "tags": ["Filters"],
                "summary": "Search courses for the filter form",
                "parameters": [
                    {"name": "q", "in": "query", "required": true, "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/quick": {
            "post": {
                "tags": ["Reports"],
                "summary": "Build a report from ad-hoc criteria",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/QuickReportRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Data source error"}
                }
            }
        },
        "/reports/filters/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Build a report from a saved filter",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Filter not found"},
                    "502": {"description": "Data source error"}
                }
            }
        },
        "/users/{id}/report": {
            "get": {
                "tags": ["Reports"],
                "summary": "Personal completion report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden"}
                }
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Export a report as a direct download",
                "parameters": [
                    {"name": "type", "in": "query", "required": true, "type": "string", "enum": ["csv", "xlsx"]},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/QuickReportRequest"}}
                ],
                "produces": ["application/octet-stream"],
                "responses": {
                    "200": {"description": "Rendered file"},
                    "400": {"description": "Unsupported export type"}
                }
            }
        },
        "/exports/jobs": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a background export",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportJobRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unsupported export type"}
                }
            }
        },
        "/exports/jobs/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Get background export status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Job not found"}
                }
            }
        },
        "/settings": {
            "get": {
                "tags": ["Settings"],
                "summary": "Resolved report settings",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/settings/refresh": {
            "post": {
                "tags": ["Settings"],
                "summary": "Drop the settings cache and reload",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/settings/module-types": {
            "get": {
                "tags": ["Settings"],
                "summary": "Trackable module-type catalog",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/download": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export via signed token",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "produces": ["application/octet-stream"],
                "responses": {
                    "200": {"description": "Rendered file"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "FilterRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "users": {"type": "array", "items": {"type": "integer"}},
                "cohorts": {"type": "array", "items": {"type": "integer"}},
                "only_cohorts_courses": {"type": "boolean"},
                "courses": {"type": "array", "items": {"type": "integer"}},
                "starting_date": {"type": "integer", "description": "epoch seconds"},
                "ending_date": {"type": "integer", "description": "epoch seconds, inclusive day"},
                "sort_column": {"type": "string", "enum": ["student", "completion", "last_completed"]},
                "sort_direction": {"type": "string", "enum": ["asc", "desc"]}
            },
            "required": ["name", "starting_date", "ending_date"]
        },
        "QuickReportRequest": {
            "type": "object",
            "properties": {
                "users": {"type": "array", "items": {"type": "integer"}},
                "cohorts": {"type": "array", "items": {"type": "integer"}},
                "only_cohorts_courses": {"type": "boolean"},
                "courses": {"type": "array", "items": {"type": "integer"}},
                "starting_date": {"type": "integer"},
                "ending_date": {"type": "integer"},
                "sort_column": {"type": "string", "enum": ["student", "completion", "last_completed"]},
                "sort_direction": {"type": "string", "enum": ["asc", "desc"]}
            }
        },
        "ExportJobRequest": {
            "type": "object",
            "properties": {
                "format": {"type": "string", "enum": ["csv", "xlsx", "pdf"]},
                "users": {"type": "array", "items": {"type": "integer"}},
                "cohorts": {"type": "array", "items": {"type": "integer"}},
                "only_cohorts_courses": {"type": "boolean"},
                "courses": {"type": "array", "items": {"type": "integer"}},
                "starting_date": {"type": "integer"},
                "ending_date": {"type": "integer"}
            },
            "required": ["format"]
        },
        "StudentReport": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "email": {"type": "string"},
                "completed_modules": {"type": "integer"},
                "total_modules": {"type": "integer"},
                "progress": {"type": "integer"},
                "last_completion": {"type": "string"},
                "meta_totals": {"type": "array", "items": {"$ref": "#/definitions/MetaTotal"}},
                "courses": {"type": "array", "items": {"$ref": "#/definitions/CourseReport"}}
            }
        },
        "CourseReport": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "linkable": {"type": "boolean"},
                "completed_modules": {"type": "integer"},
                "total_modules": {"type": "integer"},
                "progress": {"type": "integer"},
                "has_restrictions": {"type": "boolean"},
                "meta_totals": {"type": "array", "items": {"$ref": "#/definitions/MetaTotal"}},
                "events": {"type": "array", "items": {"$ref": "#/definitions/CompletionEvent"}}
            }
        },
        "CompletionEvent": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "month": {"type": "string"},
                "course_name": {"type": "string"},
                "section_name": {"type": "string"},
                "module_type": {"type": "string"},
                "module_name": {"type": "string"},
                "completed_on": {"type": "string"},
                "meta_values": {"type": "array", "items": {"type": "string"}}
            }
        },
        "MetaTotal": {
            "type": "object",
            "properties": {
                "field_id": {"type": "integer"},
                "name": {"type": "string"},
                "counter": {"type": "number"},
                "display": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "fields": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"type": "object"},
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
