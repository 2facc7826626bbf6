// Package docs holds the generated swagger spec for the proxy's one
// route. Hand-maintained here in the shape swag init would produce,
// since this repo has no build step that regenerates it.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/{host}": {
            "get": {
                "description": "Proxies a request to the named host, resolving it through the recursive resolver first when its suffix is a known one",
                "produces": ["text/plain"],
                "tags": ["proxy"],
                "summary": "Proxy a request by host",
                "parameters": [
                    {
                        "type": "string",
                        "description": "target host",
                        "name": "host",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "502": {
                        "description": "Bad Gateway"
                    }
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Ecosystem HTTP Proxy",
	Description:      "Thin HTTP proxy in front of the recursive resolver",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
