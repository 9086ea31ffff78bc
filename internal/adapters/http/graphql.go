package http

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/multimap/internal/core/domain"
	"github.com/samirrijal/multimap/internal/core/usecases"
)

// decodePinsArg parses the pins argument. Text that is not JSON is passed
// through untouched and renders as a map without pins.
func decodePinsArg(args map[string]any) any {
	raw, ok := args["pins"].(string)
	if !ok {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	pinType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Pin",
		Fields: graphql.Fields{
			"url":     &graphql.Field{Type: graphql.String},
			"image":   &graphql.Field{Type: graphql.String},
			"name":    &graphql.Field{Type: graphql.String},
			"address": &graphql.Field{Type: graphql.String},
			"html":    &graphql.Field{Type: graphql.String},
			"lat":     &graphql.Field{Type: graphql.Float},
			"lng":     &graphql.Field{Type: graphql.Float},
		},
	})

	descriptorType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MapInstanceDescriptor",
		Fields: graphql.Fields{
			"instanceId": &graphql.Field{Type: graphql.String},
			"pins":       &graphql.Field{Type: graphql.NewList(pinType)},
			"containerId": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					desc, _ := p.Source.(*domain.MapInstanceDescriptor)
					if desc == nil {
						return nil, nil
					}
					return desc.InstanceID.ContainerID(), nil
				},
			},
		},
	})

	aspectType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AspectRatio",
		Fields: graphql.Fields{
			"width":          &graphql.Field{Type: graphql.Float},
			"height":         &graphql.Field{Type: graphql.Float},
			"paddingPercent": &graphql.Field{Type: graphql.Float},
			"value":          &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"descriptor": &graphql.Field{
				Type:        descriptorType,
				Description: "Build the client descriptor for a widget. pins is a JSON encoded list of pin settings.",
				Args: graphql.FieldConfigArgument{
					"instanceId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"pins":       &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					id := p.Args["instanceId"].(string)
					return deps.Descriptors.Build(p.Context, decodePinsArg(p.Args), domain.InstanceID(id))
				},
			},
			"widget": &graphql.Field{
				Type:        graphql.String,
				Description: "Render a standalone widget as HTML. Empty when the widget cannot be built.",
				Args: graphql.FieldConfigArgument{
					"instanceId":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"pins":        &graphql.ArgumentConfig{Type: graphql.String},
					"aspectRatio": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					id := p.Args["instanceId"].(string)
					ratio, _ := p.Args["aspectRatio"].(string)
					settings := domain.WidgetSettings{AspectRatio: ratio, Pins: decodePinsArg(p.Args)}
					html, err := deps.Widgets.RenderWidget(p.Context, domain.InstanceID(id), settings, usecases.NewScriptRegistry())
					if err != nil {
						return "", nil
					}
					return html, nil
				},
			},
			"aspectRatio": &graphql.Field{
				Type:        aspectType,
				Description: "Parse a W:H aspect ratio setting, falling back to 16:9",
				Args: graphql.FieldConfigArgument{
					"value": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					r := domain.ParseAspectRatio(p.Args["value"].(string))
					return map[string]any{
						"width":          r.Width,
						"height":         r.Height,
						"paddingPercent": r.PaddingPercent(),
						"value":          r.String(),
					}, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string         `json:"query"`
		OperationName string         `json:"operationName"`
		Variables     map[string]any `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
