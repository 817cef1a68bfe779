package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/elevprofile/internal/adapters/geojson"
)

// CreateProfileHandler builds a profile synchronously from a GeoJSON request
// document. Tile failures are reported as gaps inside a 201 response.
func CreateProfileHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := geojson.DecodeRequest(c.Body())
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		p, err := deps.Profiles.Build(c.UserContext(), req)
		if err != nil {
			return profileError(c, err)
		}
		if len(p.Gaps) > 0 {
			LoggerFromCtx(c.UserContext()).Warn("profile built with gaps",
				"profile", p.ID, "gaps", len(p.Gaps), "missing", p.Summary().Missing)
		}

		c.Location("/v1/profiles/" + p.ID)
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// SubmitProfileJobHandler queues a profile for the worker.
func SubmitProfileJobHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := geojson.DecodeRequest(c.Body())
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		job, err := deps.Profiles.Submit(c.UserContext(), req)
		if err != nil {
			return profileError(c, err)
		}

		c.Location("/v1/profiles/" + job.ID)
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"id":     job.ID,
			"status": "queued",
		})
	}
}

// GetProfileHandler returns a stored profile by ID.
func GetProfileHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "profile id is required")
		}

		p, err := deps.Profiles.Get(c.UserContext(), id)
		if err != nil {
			return profileError(c, err)
		}

		// profiles never change once stored
		c.Set("Cache-Control", "public, max-age=86400, immutable")
		return c.JSON(p)
	}
}

// ListProfilesHandler returns stored profile summaries, newest first.
func ListProfilesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset, limit := pageParams(c, 20, 100)

		items, total, err := deps.Profiles.List(c.UserContext(), offset, limit)
		if err != nil {
			return profileError(c, err)
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: items, Pagination: pg})
	}
}
