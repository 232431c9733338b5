// Package docs - OpenAPI описание для /swagger, соответствует аннотациям в cmd/api и handler
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/locations/resolve": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Locations"
                ],
                "summary": "Разрешение запроса в одну локацию",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Название (обязательно без lat/lon)",
                        "name": "term",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "Язык названий",
                        "name": "locale",
                        "in": "query"
                    },
                    {
                        "type": "number",
                        "description": "Широта, только вместе с lon",
                        "name": "lat",
                        "in": "query"
                    },
                    {
                        "type": "number",
                        "description": "Долгота, только вместе с lat",
                        "name": "lon",
                        "in": "query"
                    },
                    {
                        "type": "number",
                        "description": "Радиус в км, только с координатами",
                        "name": "radius",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "Типы через запятую (city, region, venue)",
                        "name": "type",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "description": "Максимум результатов",
                        "name": "limit",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "ISO 3166-1 alpha-2",
                        "name": "countryIso",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.ResolveResponse"
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    },
                    "503": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/v1/locations/search": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Locations"
                ],
                "summary": "Поиск локаций",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Название (обязательно без lat/lon)",
                        "name": "term",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "Язык названий",
                        "name": "locale",
                        "in": "query"
                    },
                    {
                        "type": "number",
                        "description": "Широта, только вместе с lon",
                        "name": "lat",
                        "in": "query"
                    },
                    {
                        "type": "number",
                        "description": "Долгота, только вместе с lat",
                        "name": "lon",
                        "in": "query"
                    },
                    {
                        "type": "number",
                        "description": "Радиус в км, только с координатами",
                        "name": "radius",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "Типы через запятую (city, region, venue)",
                        "name": "type",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "description": "Максимум результатов",
                        "name": "limit",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "ISO 3166-1 alpha-2",
                        "name": "countryIso",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.SearchResponse"
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    },
                    "503": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/v1/health": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Health"
                ],
                "summary": "Liveness",
                "parameters": [],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.HealthResponse"
                        }
                    }
                }
            }
        },
        "/readyz": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Health"
                ],
                "summary": "Readiness: отвечает ли поисковый бэкенд",
                "parameters": [],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.HealthResponse"
                        }
                    },
                    "503": {
                        "description": "Unavailable",
                        "schema": {
                            "$ref": "#/definitions/dto.HealthResponse"
                        }
                    }
                }
            }
        },
        "/city/v1/get": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "City"
                ],
                "summary": "Город по id",
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID города",
                        "name": "id",
                        "in": "query",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Язык названий",
                        "name": "language",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.CityResponse"
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/city/v1/featured": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "City"
                ],
                "summary": "Избранные города",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Язык названий",
                        "name": "language",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.MultiCityResponse"
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/city/v1/search": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "City"
                ],
                "summary": "Поиск городов по названию",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Название",
                        "name": "query",
                        "in": "query",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Язык названий",
                        "name": "language",
                        "in": "query",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "ISO 3166-1 alpha-2",
                        "name": "countryIso",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.MultiCityResponse"
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/city/v1/closest": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "City"
                ],
                "summary": "Ближайший город",
                "parameters": [
                    {
                        "type": "number",
                        "description": "Широта, только вместе с lon",
                        "name": "lat",
                        "in": "query"
                    },
                    {
                        "type": "number",
                        "description": "Долгота, только вместе с lat",
                        "name": "lon",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "Язык названий",
                        "name": "language",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.CityResponse"
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/city/v1/associatedFeatured": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "City"
                ],
                "summary": "Избранный город для города",
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID города",
                        "name": "id",
                        "in": "query",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Язык названий",
                        "name": "language",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.CityResponse"
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "dto.LocationResult": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "type": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "locale": {
                    "type": "string"
                },
                "locale_fallback": {
                    "type": "boolean"
                },
                "region_name": {
                    "type": "string"
                },
                "country_iso": {
                    "type": "string"
                },
                "is_featured": {
                    "type": "boolean"
                },
                "lat": {
                    "type": "number"
                },
                "lon": {
                    "type": "number"
                },
                "score": {
                    "type": "number"
                },
                "rank": {
                    "type": "integer"
                },
                "match_quality": {
                    "type": "string"
                },
                "distance_km": {
                    "type": "number"
                }
            }
        },
        "dto.ResolveResponse": {
            "type": "object",
            "properties": {
                "status": {
                    "type": "string",
                    "enum": [
                        "unique",
                        "ambiguous",
                        "not_found"
                    ]
                },
                "result": {
                    "$ref": "#/definitions/dto.LocationResult"
                },
                "candidates": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.LocationResult"
                    }
                }
            }
        },
        "dto.SearchResponse": {
            "type": "object",
            "properties": {
                "results": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.LocationResult"
                    }
                }
            }
        },
        "dto.CityResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "isFeatured": {
                    "type": "boolean"
                },
                "countryIso": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "regionName": {
                    "type": "string"
                }
            }
        },
        "dto.MultiCityResponse": {
            "type": "object",
            "properties": {
                "cities": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.CityResponse"
                    }
                }
            }
        },
        "dto.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {
                    "type": "string"
                },
                "backend": {
                    "type": "string"
                },
                "error": {
                    "type": "string"
                }
            }
        },
        "errors.AppError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "details": {
                    "type": "object",
                    "additionalProperties": true
                }
            }
        },
        "utils.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "$ref": "#/definitions/errors.AppError"
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Location Lookup API",
	Description:      "Разрешение названий и координат в города, регионы и объекты.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
