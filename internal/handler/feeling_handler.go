package handler

import (
	"net/http"

	"feels/backend/internal/social"

	"github.com/gin-gonic/gin"
)

type FeelingInput struct {
	Name        string `json:"name" example:"Hopeful"`
	Color       string `json:"color" example:"#7FD8BE"`
	Description string `json:"description"`
	FeelingType string `json:"feeling_type" example:"low_energy_pleasant"`
}

type FeelingListResponse struct {
	Feelings []FeelingResponse `json:"feelings"`
}

type FeelingCreatedResponse struct {
	Name    string `json:"name"`
	Message string `json:"message" example:"Feeling created successfully"`
}

type FeelingTypeListResponse struct {
	FeelingTypes []FeelingTypeResponse `json:"feeling_types"`
}

// ListFeelings godoc
// @Summary      List feelings
// @Tags         feelings
// @Produce      json
// @Success      200  {object}  FeelingListResponse
// @Router       /feelings [get]
func (h *Handler) ListFeelings(c *gin.Context) {
	feelings, err := h.svc.Feelings.ListFeelings(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]FeelingResponse, 0, len(feelings))
	for _, f := range feelings {
		out = append(out, newFeelingResponse(f))
	}
	c.JSON(http.StatusOK, FeelingListResponse{Feelings: out})
}

// CreateFeeling godoc
// @Summary      Create a feeling
// @Tags         feelings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body FeelingInput true "Feeling"
// @Success      201  {object}  FeelingCreatedResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Feeling type not found"
// @Failure      409  {object}  ErrorResponse
// @Router       /feelings [post]
func (h *Handler) CreateFeeling(c *gin.Context) {
	var input FeelingInput
	if !bind(c, &input) {
		return
	}
	feeling, err := h.svc.Feelings.CreateFeeling(c.Request.Context(), social.NewFeeling{
		Name:        input.Name,
		Color:       input.Color,
		Description: input.Description,
		TypeName:    input.FeelingType,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, FeelingCreatedResponse{Name: feeling.Name, Message: "Feeling created successfully"})
}

// ListFeelingTypes godoc
// @Summary      List feeling types
// @Tags         feelings
// @Produce      json
// @Success      200  {object}  FeelingTypeListResponse
// @Router       /feeling-types [get]
func (h *Handler) ListFeelingTypes(c *gin.Context) {
	types, err := h.svc.Feelings.ListFeelingTypes(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]FeelingTypeResponse, 0, len(types))
	for _, t := range types {
		out = append(out, FeelingTypeResponse{Name: t.Name, Description: t.Description})
	}
	c.JSON(http.StatusOK, FeelingTypeListResponse{FeelingTypes: out})
}
