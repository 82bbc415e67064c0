package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "GAPT Portal API",
        "description": "Governance, provisioning and academic analytics for the institution portal",
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
        {"name": "Auth", "description": "Authentication and registration"},
        {"name": "Permissions", "description": "Role/feature access matrix"},
        {"name": "Identities", "description": "Deterministic account provisioning"},
        {"name": "Approvals", "description": "Governance approval workflows"},
        {"name": "Users", "description": "Institution directory"},
        {"name": "Students", "description": "Academic scoring and advisory"},
        {"name": "Marks", "description": "Assessment batches and score entry"},
        {"name": "Notifications", "description": "Status-change ledger"},
        {"name": "System", "description": "Destructive registry operations"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and obtain an access token",
                "responses": {
                    "200": {"description": "Token issued"},
                    "401": {"description": "Invalid credentials"},
                    "403": {"description": "Pending or rejected account"}
                }
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "File a self-registration",
                "responses": {
                    "201": {"description": "Registration filed as PENDING"},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/permissions": {
            "get": {
                "tags": ["Permissions"],
                "summary": "Full access matrix",
                "responses": {"200": {"description": "Matrix"}}
            },
            "put": {
                "tags": ["Permissions"],
                "summary": "Update one matrix cell",
                "responses": {
                    "200": {"description": "Updated"},
                    "403": {"description": "ACCESS_MATRIX not granted"}
                }
            }
        },
        "/identities": {
            "post": {
                "tags": ["Identities"],
                "summary": "Provision a single account",
                "responses": {
                    "201": {"description": "Account created"},
                    "409": {"description": "Derived email already exists"}
                }
            }
        },
        "/identities/bulk": {
            "post": {
                "tags": ["Identities"],
                "summary": "Provision many accounts, skipping conflicts",
                "responses": {"200": {"description": "Per-row outcome"}}
            }
        },
        "/approvals/onboarding": {
            "get": {
                "tags": ["Approvals"],
                "summary": "Accounts awaiting the onboarding decision",
                "responses": {"200": {"description": "Pending queue"}}
            }
        },
        "/approvals/onboarding/{id}": {
            "post": {
                "tags": ["Approvals"],
                "summary": "Approve or reject a pending account",
                "responses": {
                    "200": {"description": "Decided"},
                    "409": {"description": "Already decided"}
                }
            }
        },
        "/approvals/curriculum": {
            "post": {
                "tags": ["Approvals"],
                "summary": "File a curriculum unlock petition",
                "responses": {"201": {"description": "Filed"}}
            },
            "get": {
                "tags": ["Approvals"],
                "summary": "List curriculum unlock petitions",
                "responses": {"200": {"description": "Petitions"}}
            }
        },
        "/approvals/curriculum/{id}": {
            "post": {
                "tags": ["Approvals"],
                "summary": "Decide a curriculum unlock petition",
                "responses": {
                    "200": {"description": "Decided"},
                    "409": {"description": "Already decided"}
                }
            }
        },
        "/approvals/attendance": {
            "post": {
                "tags": ["Approvals"],
                "summary": "File an attendance edit-authority petition",
                "responses": {"200": {"description": "Petition"}}
            },
            "get": {
                "tags": ["Approvals"],
                "summary": "Petitions visible to the calling authority",
                "responses": {"200": {"description": "Queue"}}
            }
        },
        "/approvals/attendance/{id}": {
            "post": {
                "tags": ["Approvals"],
                "summary": "Record one authority's flag on a petition",
                "responses": {"200": {"description": "Updated petition"}}
            }
        },
        "/approvals/reveal": {
            "post": {
                "tags": ["Approvals"],
                "summary": "File a credential reveal petition",
                "responses": {"200": {"description": "Filed"}}
            },
            "get": {
                "tags": ["Approvals"],
                "summary": "Credential reveal queue",
                "responses": {"200": {"description": "Queue"}}
            }
        },
        "/students/{id}/trajectory": {
            "get": {
                "tags": ["Students"],
                "summary": "Cumulative CGPA series",
                "responses": {"200": {"description": "Series"}}
            }
        },
        "/students/{id}/gradecard": {
            "get": {
                "tags": ["Students"],
                "summary": "Transcript PDF for one semester",
                "produces": ["application/pdf"],
                "responses": {"200": {"description": "PDF document"}}
            }
        },
        "/students/{id}/advisory": {
            "post": {
                "tags": ["Students"],
                "summary": "Green-impact advisory analysis",
                "responses": {"200": {"description": "Advisory report or fallback"}}
            }
        },
        "/system/purge": {
            "post": {
                "tags": ["System"],
                "summary": "Erase the registry except the acting administrator",
                "responses": {
                    "204": {"description": "Purged"},
                    "400": {"description": "Confirmation phrase mismatch"}
                }
            }
        }
    },
    "definitions": {
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
