package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CourseCraft Planning API",
        "description": "Planning gateway for degree plans and term timetables.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {
            "name": "Catalog",
            "description": "Programs and courses"
        },
        {
            "name": "Session",
            "description": "Planning session inputs"
        },
        {
            "name": "Planning",
            "description": "Degree plans and timetables"
        },
        {
            "name": "Exports",
            "description": "Plan and timetable artifacts"
        },
        {
            "name": "System",
            "description": "Gateway observability"
        }
    ],
    "paths": {
        "/programs": {
            "get": {
                "tags": [
                    "Catalog"
                ],
                "summary": "List degree programs",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/programs/{id}": {
            "get": {
                "tags": [
                    "Catalog"
                ],
                "summary": "Get a degree program",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string",
                        "description": "Program ID"
                    }
                ]
            }
        },
        "/courses": {
            "get": {
                "tags": [
                    "Catalog"
                ],
                "summary": "List courses",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "query",
                        "name": "search",
                        "type": "string",
                        "description": "Matches code or name"
                    }
                ]
            }
        },
        "/courses/{code}": {
            "get": {
                "tags": [
                    "Catalog"
                ],
                "summary": "Get a course",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "code",
                        "required": true,
                        "type": "string",
                        "description": "Course code"
                    }
                ]
            }
        },
        "/sessions": {
            "post": {
                "tags": [
                    "Session"
                ],
                "summary": "Start a planning session",
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/session": {
            "get": {
                "tags": [
                    "Session"
                ],
                "summary": "Get the planning session snapshot",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Session expired",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Session"
                ],
                "summary": "Clear program, completed courses, plan and timetables",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/session/program": {
            "put": {
                "tags": [
                    "Session"
                ],
                "summary": "Select the degree program",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Unknown program",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SelectProgramRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/session/completed-courses": {
            "put": {
                "tags": [
                    "Session"
                ],
                "summary": "Replace the completed course set",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CompletedCoursesRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/session/completed-courses/{code}/toggle": {
            "post": {
                "tags": [
                    "Session"
                ],
                "summary": "Toggle one completed course",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "code",
                        "required": true,
                        "type": "string",
                        "description": "Course code"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/session/degree-plan": {
            "post": {
                "tags": [
                    "Planning"
                ],
                "summary": "Validate constraints and request a degree plan",
                "responses": {
                    "200": {
                        "description": "Resolved",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "202": {
                        "description": "Planner call in flight",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Constraint validation failed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/DegreePlanConstraints"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "get": {
                "tags": [
                    "Planning"
                ],
                "summary": "Get degree plan status and the stored plan",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/session/timetables": {
            "post": {
                "tags": [
                    "Planning"
                ],
                "summary": "Request timetable options for a planned term",
                "responses": {
                    "200": {
                        "description": "Resolved",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "202": {
                        "description": "Solver call in flight",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Preference validation failed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "412": {
                        "description": "No degree plan",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/GenerateTimetableRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "get": {
                "tags": [
                    "Planning"
                ],
                "summary": "Get timetable status, options and the weekly grid",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/session/timetables/selection": {
            "put": {
                "tags": [
                    "Planning"
                ],
                "summary": "Change the active timetable option",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SelectTimetableRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/session/exports/plan": {
            "post": {
                "tags": [
                    "Exports"
                ],
                "summary": "Export the degree plan as JSON",
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "412": {
                        "description": "No degree plan",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/session/exports/timetable": {
            "post": {
                "tags": [
                    "Exports"
                ],
                "summary": "Export the selected timetable option",
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "412": {
                        "description": "No option selected",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "query",
                        "name": "format",
                        "type": "string",
                        "enum": [
                            "json",
                            "csv",
                            "pdf"
                        ]
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/exports/{token}": {
            "get": {
                "tags": [
                    "Exports"
                ],
                "summary": "Download an export through its signed token",
                "produces": [
                    "application/json",
                    "text/csv",
                    "application/pdf"
                ],
                "parameters": [
                    {
                        "in": "path",
                        "name": "token",
                        "required": true,
                        "type": "string",
                        "description": "Signed download token"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Artifact",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "401": {
                        "description": "Invalid or expired link",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/system/metrics": {
            "get": {
                "tags": [
                    "System"
                ],
                "summary": "Gateway metrics snapshot",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "SelectProgramRequest": {
            "type": "object",
            "properties": {
                "program_id": {
                    "type": "string",
                    "x-nullable": true
                }
            }
        },
        "CompletedCoursesRequest": {
            "type": "object",
            "properties": {
                "course_codes": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "DegreePlanConstraints": {
            "type": "object",
            "properties": {
                "allowed_terms": {
                    "type": "string"
                },
                "target_grad_term": {
                    "type": "string"
                },
                "min_credits": {
                    "type": "string"
                },
                "max_credits": {
                    "type": "string"
                },
                "max_terms": {
                    "type": "string"
                }
            }
        },
        "TimetablePreferencesInput": {
            "type": "object",
            "properties": {
                "earliest_time": {
                    "type": "string"
                },
                "latest_time": {
                    "type": "string"
                },
                "avoid_friday": {
                    "type": "boolean"
                }
            }
        },
        "GenerateTimetableRequest": {
            "type": "object",
            "properties": {
                "term_id": {
                    "type": "string"
                },
                "course_codes": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "preferences": {
                    "$ref": "#/definitions/TimetablePreferencesInput"
                },
                "max_solutions": {
                    "type": "integer"
                }
            },
            "required": [
                "term_id"
            ]
        },
        "SelectTimetableRequest": {
            "type": "object",
            "properties": {
                "index": {
                    "type": "integer",
                    "x-nullable": true
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                },
                "field": {
                    "type": "string"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "meta": {
                    "type": "object"
                }
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
