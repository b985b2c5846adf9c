// Package docs contiene la especificación OpenAPI servida en /swagger.
// Mantener en sync con las anotaciones godoc de los handlers (swag init).
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
        "/medicines": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "medicines"
                ],
                "summary": "Listar inventario",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/medicines.medicineResponse"
                            }
                        }
                    },
                    "500": {
                        "description": "internal error",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            },
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "medicines"
                ],
                "summary": "Registrar medicamento",
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Datos del medicamento",
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/medicines.medicineRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/medicines.medicineResponse"
                        }
                    },
                    "400": {
                        "description": "invalid json / invalid input",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "500": {
                        "description": "internal error",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "/medicines/search": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "medicines"
                ],
                "summary": "Buscar por nombre o primera letra",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Término de búsqueda",
                        "name": "q",
                        "in": "query",
                        "required": false
                    },
                    {
                        "type": "string",
                        "description": "Primera letra (se ignora si viene q)",
                        "name": "letter",
                        "in": "query",
                        "required": false
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/medicines.searchResponse"
                        }
                    },
                    "500": {
                        "description": "internal error",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "/medicines/symptoms": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "medicines"
                ],
                "summary": "Buscar por síntomas",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Síntomas separados por coma",
                        "name": "s",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/medicines.searchResponse"
                        }
                    },
                    "500": {
                        "description": "internal error",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "/medicines/{medicineID}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "medicines"
                ],
                "summary": "Obtener medicamento",
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID del medicamento",
                        "name": "medicineID",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/medicines.medicineResponse"
                        }
                    },
                    "404": {
                        "description": "not found",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            },
            "put": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "medicines"
                ],
                "summary": "Reemplazar medicamento",
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID del medicamento",
                        "name": "medicineID",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Registro completo",
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/medicines.medicineRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/medicines.medicineResponse"
                        }
                    },
                    "400": {
                        "description": "invalid json / invalid input",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "404": {
                        "description": "not found",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            },
            "delete": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "medicines"
                ],
                "summary": "Borrar medicamento",
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID del medicamento",
                        "name": "medicineID",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "404": {
                        "description": "not found",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "/plans": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "plans"
                ],
                "summary": "Listar planes",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/plans.planResponse"
                            }
                        }
                    },
                    "500": {
                        "description": "internal error",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            },
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "plans"
                ],
                "summary": "Crear plan de tratamiento",
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Datos del plan",
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/plans.planRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/plans.planResponse"
                        }
                    },
                    "400": {
                        "description": "invalid json / invalid input",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "500": {
                        "description": "internal error",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "/plans/search": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "plans"
                ],
                "summary": "Buscar planes por nombre",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Prefijo del nombre",
                        "name": "q",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/plans.searchResponse"
                        }
                    }
                }
            }
        },
        "/plans/symptoms": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "plans"
                ],
                "summary": "Buscar planes por síntomas",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Síntomas separados por coma",
                        "name": "s",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/plans.searchResponse"
                        }
                    }
                }
            }
        },
        "/plans/lookup": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "plans"
                ],
                "summary": "Buscar plan por nombre o síntoma exacto",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Nombre de plan o síntoma",
                        "name": "key",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/plans.searchResponse"
                        }
                    }
                }
            }
        },
        "/plans/{planID}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "plans"
                ],
                "summary": "Obtener plan",
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID del plan",
                        "name": "planID",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/plans.planResponse"
                        }
                    },
                    "404": {
                        "description": "not found",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            },
            "put": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "plans"
                ],
                "summary": "Reemplazar plan",
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID del plan",
                        "name": "planID",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Plan completo",
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/plans.planRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/plans.planResponse"
                        }
                    },
                    "400": {
                        "description": "invalid json / invalid input",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "404": {
                        "description": "not found",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            },
            "delete": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "plans"
                ],
                "summary": "Borrar plan",
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID del plan",
                        "name": "planID",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "404": {
                        "description": "not found",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "medicines.locationPayload": {
            "type": "object",
            "properties": {
                "cabinet": {
                    "type": "string"
                },
                "row": {
                    "type": "string"
                },
                "box": {
                    "type": "string"
                }
            }
        },
        "medicines.medicineRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "symptoms": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "location": {
                    "$ref": "#/definitions/medicines.locationPayload"
                },
                "type": {
                    "type": "string",
                    "enum": [
                        "tablet",
                        "syrup",
                        "capsule",
                        "injection",
                        "other"
                    ]
                },
                "price": {
                    "type": "number"
                },
                "notes": {
                    "type": "string"
                }
            }
        },
        "medicines.medicineResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "symptoms": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "location": {
                    "$ref": "#/definitions/medicines.locationPayload"
                },
                "type": {
                    "type": "string"
                },
                "price": {
                    "type": "number"
                },
                "notes": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "updated_at": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "medicines.searchResponse": {
            "type": "object",
            "properties": {
                "query_issued": {
                    "type": "boolean"
                },
                "results": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/medicines.medicineResponse"
                    }
                }
            }
        },
        "plans.locationPayload": {
            "type": "object",
            "properties": {
                "cabinet": {
                    "type": "string"
                },
                "row": {
                    "type": "string"
                },
                "box": {
                    "type": "string"
                }
            }
        },
        "plans.customMedicinePayload": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "symptoms": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "location": {
                    "$ref": "#/definitions/plans.locationPayload"
                },
                "type": {
                    "type": "string"
                },
                "price": {
                    "type": "number"
                },
                "notes": {
                    "type": "string"
                }
            }
        },
        "plans.planItemRequest": {
            "type": "object",
            "properties": {
                "medicine_id": {
                    "type": "string"
                },
                "custom": {
                    "$ref": "#/definitions/plans.customMedicinePayload"
                }
            }
        },
        "plans.planRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "symptoms": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "medicines": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/plans.planItemRequest"
                    }
                },
                "total_price": {
                    "type": "number"
                },
                "notes": {
                    "type": "string"
                }
            }
        },
        "plans.snapshotResponse": {
            "type": "object",
            "properties": {
                "medicine_id": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "type": {
                    "type": "string"
                },
                "notes": {
                    "type": "string"
                },
                "price": {
                    "type": "number"
                },
                "location": {
                    "$ref": "#/definitions/plans.locationPayload"
                }
            }
        },
        "plans.planResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "symptoms": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "medicines": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/plans.snapshotResponse"
                    }
                },
                "total_price": {
                    "type": "number"
                },
                "notes": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "updated_at": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "plans.searchResponse": {
            "type": "object",
            "properties": {
                "query_issued": {
                    "type": "boolean"
                },
                "results": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/plans.planResponse"
                    }
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "MediLocator API",
	Description:      "Inventario de medicamentos con ubicación física, planes de tratamiento y búsqueda por nombre, letra o síntomas.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
