package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/elevprofile/internal/core/domain"
)

// boundsField resolves a [4]float64 bounding box as a list.
func boundsField(get func(src interface{}) ([4]float64, bool)) *graphql.Field {
	return &graphql.Field{
		Type: graphql.NewList(graphql.Float),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			b, ok := get(p.Source)
			if !ok {
				return nil, nil
			}
			return b[:], nil
		},
	}
}

// buildSchema creates the GraphQL schema wired to the profile service.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	mpointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MPoint",
		Fields: graphql.Fields{
			"m": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(domain.MPoint).Coords[0], nil
				},
			},
			"lat": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(domain.MPoint).Coords[1], nil
				},
			},
		},
	})

	elevationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ElevationSample",
		Fields: graphql.Fields{
			"m": &graphql.Field{Type: graphql.Float},
			"z": &graphql.Field{
				Type:        graphql.Int,
				Description: "Elevation in meters; null inside a gap",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					s := p.Source.(domain.ElevationSample)
					if s.Z == nil {
						return nil, nil
					}
					return *s.Z, nil
				},
			},
		},
	})

	referencedType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ReferencedPoint",
		Fields: graphql.Fields{
			"m":        &graphql.Field{Type: graphql.Float},
			"category": &graphql.Field{Type: graphql.String},
			"label":    &graphql.Field{Type: graphql.String},
		},
	})

	gapType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Gap",
		Fields: graphql.Fields{
			"tile":   &graphql.Field{Type: graphql.String},
			"m_from": &graphql.Field{Type: graphql.Float},
			"m_to":   &graphql.Field{Type: graphql.Float},
			"count":  &graphql.Field{Type: graphql.Int},
			"reason": &graphql.Field{Type: graphql.String},
		},
	})

	createdAt := &graphql.Field{
		Type: graphql.String,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			switch v := p.Source.(type) {
			case *domain.Profile:
				return v.CreatedAt.Format(time.RFC3339), nil
			case domain.ProfileSummary:
				return v.CreatedAt.Format(time.RFC3339), nil
			}
			return nil, nil
		},
	}

	summaryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ProfileSummary",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"created_at": createdAt,
			"step":       &graphql.Field{Type: graphql.Float},
			"zoom":       &graphql.Field{Type: graphql.Int},
			"length":     &graphql.Field{Type: graphql.Float},
			"points":     &graphql.Field{Type: graphql.Int},
			"missing":    &graphql.Field{Type: graphql.Int},
			"bounds": boundsField(func(src interface{}) ([4]float64, bool) {
				s, ok := src.(domain.ProfileSummary)
				return s.Bounds, ok
			}),
		},
	})

	profileType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Profile",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"created_at":    createdAt,
			"step":          &graphql.Field{Type: graphql.Float},
			"zoom":          &graphql.Field{Type: graphql.Int},
			"length":        &graphql.Field{Type: graphql.Float},
			"ground_length": &graphql.Field{Type: graphql.Float},
			"bounds": boundsField(func(src interface{}) ([4]float64, bool) {
				p, ok := src.(*domain.Profile)
				if !ok {
					return [4]float64{}, false
				}
				return p.Bounds, true
			}),
			"mpoints":     &graphql.Field{Type: graphql.NewList(mpointType)},
			"melevations": &graphql.Field{Type: graphql.NewList(elevationType)},
			"mpois":       &graphql.Field{Type: graphql.NewList(referencedType)},
			"msegments":   &graphql.Field{Type: graphql.NewList(referencedType)},
			"gaps":        &graphql.Field{Type: graphql.NewList(gapType)},
		},
	})

	pageType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ProfilePage",
		Fields: graphql.Fields{
			"total": &graphql.Field{Type: graphql.Int},
			"items": &graphql.Field{Type: graphql.NewList(summaryType)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"profile": &graphql.Field{
				Type:        profileType,
				Description: "Get a stored profile by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Profiles.Get(p.Context, id)
				},
			},
			"profiles": &graphql.Field{
				Type:        pageType,
				Description: "List stored profiles, newest first",
				Args: graphql.FieldConfigArgument{
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					offset := p.Args["offset"].(int)
					limit := p.Args["limit"].(int)
					items, total, err := deps.Profiles.List(p.Context, offset, limit)
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{
						"total": total,
						"items": items,
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
		// programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
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
