package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Kimono Flow Tracker API",
        "description": "Gym attendance and roster management",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Account registration and token lifecycle"},
        {"name": "Usuarios", "description": "User lookups by RA and role"},
        {"name": "Students", "description": "Student roster management"},
        {"name": "Turmas", "description": "Class groups and sessions"},
        {"name": "Attendance", "description": "Check-in flows"},
        {"name": "Reports", "description": "Attendance exports"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register an account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate account", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
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
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Logout current session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/usuarios": {
            "get": {
                "tags": ["Usuarios"],
                "summary": "List users by role",
                "parameters": [
                    {"name": "tipo", "in": "query", "required": true, "type": "string", "enum": ["aluno", "professor", "monitor"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/usuarios/{ra}": {
            "get": {
                "tags": ["Usuarios"],
                "summary": "Resolve an RA",
                "parameters": [
                    {"name": "ra", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{ra}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student",
                "parameters": [
                    {"name": "ra", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Students"],
                "summary": "Create or update student",
                "parameters": [
                    {"name": "ra", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertStudentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{ra}/presencas": {
            "get": {
                "tags": ["Students"],
                "summary": "List student attendance",
                "parameters": [
                    {"name": "ra", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/turmas": {
            "get": {
                "tags": ["Turmas"],
                "summary": "List turmas",
                "parameters": [
                    {"name": "professorId", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Turmas"],
                "summary": "Create turma",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTurmaRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/turmas/{id}/aulas": {
            "get": {
                "tags": ["Turmas"],
                "summary": "List aulas of a turma",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Turmas"],
                "summary": "Open a new aula with a fresh QR token",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/turmas/{id}/alunos": {
            "post": {
                "tags": ["Turmas"],
                "summary": "Enroll a student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollAlunoRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/turmas/{id}/report": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download turma attendance report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Report file"}
                }
            }
        },
        "/aulas/token/{token}": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Resolve a QR token to its aula",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/presencas": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Record attendance",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordPresencaRequest"}}
                ],
                "responses": {
                    "200": {"description": "Already recorded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Recorded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/qr": {
            "post": {
                "tags": ["Attendance"],
                "summary": "QR check-in",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/QRCheckInRequest"}}
                ],
                "responses": {
                    "200": {"description": "Already recorded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Recorded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/self": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Self-service check-in",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SelfCheckInRequest"}}
                ],
                "responses": {
                    "200": {"description": "Already recorded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Recorded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/turmas": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List self-service turmas for an RA",
                "parameters": [
                    {"name": "ra", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "RegisterRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "nome": {"type": "string"},
                "ra": {"type": "string"},
                "tipo": {"type": "string", "enum": ["aluno", "professor", "monitor"]}
            },
            "required": ["email", "password", "nome", "ra", "tipo"]
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "RefreshTokenRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            },
            "required": ["refresh_token"]
        },
        "UpsertStudentRequest": {
            "type": "object",
            "properties": {
                "nome": {"type": "string"},
                "faixa": {"type": "string", "enum": ["Branca", "Azul", "Roxa", "Marrom", "Preta"]},
                "peso": {"type": "number"},
                "altura": {"type": "integer"},
                "tempo_pratica": {"type": "integer"}
            },
            "required": ["nome", "faixa"]
        },
        "CreateTurmaRequest": {
            "type": "object",
            "properties": {
                "nome": {"type": "string"},
                "descricao": {"type": "string"},
                "professor_id": {"type": "integer"}
            },
            "required": ["nome"]
        },
        "EnrollAlunoRequest": {
            "type": "object",
            "properties": {
                "aluno_id": {"type": "integer"}
            },
            "required": ["aluno_id"]
        },
        "RecordPresencaRequest": {
            "type": "object",
            "properties": {
                "aula_id": {"type": "integer"},
                "aluno_id": {"type": "integer"}
            },
            "required": ["aula_id", "aluno_id"]
        },
        "QRCheckInRequest": {
            "type": "object",
            "properties": {
                "ra": {"type": "string"},
                "qr_token": {"type": "string"}
            },
            "required": ["ra", "qr_token"]
        },
        "SelfCheckInRequest": {
            "type": "object",
            "properties": {
                "ra": {"type": "string"},
                "turma_id": {"type": "integer"}
            },
            "required": ["ra", "turma_id"]
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
