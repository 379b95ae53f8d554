package v1

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shenikar/critter_connect/internal/config"
	"github.com/shenikar/critter_connect/internal/models"
	"github.com/shenikar/critter_connect/internal/service"
	"github.com/sirupsen/logrus"
)

const (
	msgInvalidBody    = "Invalid request body"
	msgReportNotFound = "Report not found"
	msgImageNotFound  = "Image not found"
	msgNoImageData    = "No image data provided"
)

type Handler struct {
	reportService  service.ReportService
	mediaService   service.MediaService
	speciesService service.SpeciesService
	logger         *logrus.Logger
	validate       *validator.Validate
	cfg            *config.Config
}

func NewHandler(
	reportService service.ReportService,
	mediaService service.MediaService,
	speciesService service.SpeciesService,
	logger *logrus.Logger,
	cfg *config.Config,
) *Handler {
	return &Handler{
		reportService:  reportService,
		mediaService:   mediaService,
		speciesService: speciesService,
		logger:         logger,
		validate:       validator.New(),
		cfg:            cfg,
	}
}

func (h *Handler) log(method string) *logrus.Entry {
	return h.logger.WithFields(logrus.Fields{
		"handler": "reports",
		"method":  method,
	})
}

// @Summary Submit a wildlife incident report
// @Description Validates the report, resolves the postal code from the location and stores it with derived priority.
// @Tags Reports
// @Accept json
// @Produce json
// @Param report body CreateReportRequest true "Incident report"
// @Success 201 {object} Response{data=CreatedReportResponse}
// @Failure 400 {object} Response "Missing fields, invalid values or unresolved location"
// @Failure 500 {object} Response "Internal server error"
// @Router /reports [post]
func (h *Handler) createReport(c *gin.Context) {
	var input CreateReportRequest
	log := h.log("createReport")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: msgInvalidBody})
		return
	}

	created, err := h.reportService.CreateReport(c.Request.Context(), DTOToReportInput(input))
	if err != nil {
		h.respondError(c, log, err, msgReportNotFound, "Failed to create report")
		return
	}
	respondOK(c, http.StatusCreated, "Report submitted successfully", ModelToCreatedReportResponse(created))
}

// @Summary List reports
// @Description Lists reports newest first, optionally filtered by status, priority and a lat/lng/radius circle (km). The map route also accepts urgency as an alias of priority.
// @Tags Reports
// @Produce json
// @Param status query string false "Status filter" Enums(pending, in-progress, resolved, closed)
// @Param priority query string false "Priority filter" Enums(low, medium, high)
// @Param lat query number false "Circle center latitude"
// @Param lng query number false "Circle center longitude"
// @Param radius query number false "Circle radius in km"
// @Success 200 {object} Response{data=[]ReportResponse}
// @Failure 400 {object} Response "Invalid filter"
// @Failure 500 {object} Response "Internal server error"
// @Router /reports [get]
// @Router /maps/getByGeoSpatial [get]
func (h *Handler) listReports(c *gin.Context) {
	log := h.log("listReports")

	priority := c.Query("priority")
	if priority == "" {
		priority = c.Query("urgency")
	}
	filter, err := parseFilter(c.Query("status"), priority)
	if err == nil {
		filter.Near, err = parseRadius(c.Query("lat"), c.Query("lng"), c.Query("radius"))
	}
	if err != nil {
		log.WithError(err).Warn("Invalid list filter")
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: err.Error()})
		return
	}

	reports, err := h.reportService.ListReports(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, log, err, msgReportNotFound, "Failed to list reports")
		return
	}
	respondOK(c, http.StatusOK, "", ModelsToReportResponses(reports))
}

// @Summary Get report by internal id
// @Tags Reports
// @Produce json
// @Param id path string true "Internal report id"
// @Success 200 {object} Response{data=ReportResponse}
// @Failure 404 {object} Response "Report not found"
// @Failure 500 {object} Response "Internal server error"
// @Router /reports/{id} [get]
func (h *Handler) getReport(c *gin.Context) {
	id := c.Param("id")
	log := h.log("getReport").WithField("id", id)

	report, err := h.reportService.GetReport(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, log, err, msgReportNotFound, "Failed to get report")
		return
	}
	respondOK(c, http.StatusOK, "", ModelToReportResponse(report))
}

// @Summary Get report by human-readable code
// @Tags Reports
// @Produce json
// @Param code path string true "Report code, e.g. WR-LX3K9Q-4821"
// @Success 200 {object} Response{data=ReportResponse}
// @Failure 404 {object} Response "Report not found"
// @Failure 500 {object} Response "Internal server error"
// @Router /reports/by-code/{code} [get]
func (h *Handler) getReportByCode(c *gin.Context) {
	code := c.Param("code")
	log := h.log("getReportByCode").WithField("code", code)

	report, err := h.reportService.GetReportByCode(c.Request.Context(), code)
	if err != nil {
		h.respondError(c, log, err, msgReportNotFound, "Failed to get report")
		return
	}
	respondOK(c, http.StatusOK, "", ModelToReportResponse(report))
}

// @Summary Update report status
// @Description Any known status may be set; reopening a resolved or closed report is allowed. Requires API key when keys are configured.
// @Tags Reports
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Internal report id"
// @Param status body UpdateStatusRequest true "New status"
// @Success 200 {object} Response{data=ReportResponse}
// @Failure 400 {object} Response "Missing or unknown status"
// @Failure 401 {object} Response "Unauthorized"
// @Failure 404 {object} Response "Report not found"
// @Failure 500 {object} Response "Internal server error"
// @Router /reports/{id}/status [post]
func (h *Handler) updateStatus(c *gin.Context) {
	id := c.Param("id")
	log := h.log("updateStatus").WithField("id", id)

	var input UpdateStatusRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: msgInvalidBody})
		return
	}
	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: "Status is required"})
		return
	}

	// Неизвестный статус отклоняет сервис
	report, err := h.reportService.UpdateStatus(c.Request.Context(), id, models.StatusUpdate{
		Status:     models.Status(input.Status),
		AssignedTo: input.AssignedTo,
	})
	if err != nil {
		h.respondError(c, log, err, msgReportNotFound, "Failed to update report status")
		return
	}
	respondOK(c, http.StatusOK, "Report status updated", ModelToReportResponse(report))
}

// @Summary Update report fields
// @Description Partial update; only the supplied fields change. Unknown keys are rejected. Requires API key when keys are configured.
// @Tags Reports
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Internal report id"
// @Param fields body UpdateFieldsRequest true "Fields to update"
// @Success 200 {object} Response{data=ReportResponse}
// @Failure 400 {object} Response "Empty patch, unknown key or invalid value"
// @Failure 401 {object} Response "Unauthorized"
// @Failure 404 {object} Response "Report not found"
// @Failure 500 {object} Response "Internal server error"
// @Router /reports/{id}/fields [post]
func (h *Handler) updateFields(c *gin.Context) {
	id := c.Param("id")
	log := h.log("updateFields").WithField("id", id)

	var input UpdateFieldsRequest
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil {
		log.WithError(err).Warn("Failed to decode patch")
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: patchDecodeMessage(err)})
		return
	}

	report, err := h.reportService.UpdateFields(c.Request.Context(), id, DTOToReportPatch(input))
	if err != nil {
		h.respondError(c, log, err, msgReportNotFound, "Failed to update report")
		return
	}
	respondOK(c, http.StatusOK, "Report updated", ModelToReportResponse(report))
}

// @Summary Delete a report
// @Tags Reports
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Internal report id"
// @Success 200 {object} Response
// @Failure 401 {object} Response "Unauthorized"
// @Failure 404 {object} Response "Report not found"
// @Failure 500 {object} Response "Internal server error"
// @Router /reports/{id} [delete]
func (h *Handler) deleteReport(c *gin.Context) {
	id := c.Param("id")
	log := h.log("deleteReport").WithField("id", id)

	if err := h.reportService.DeleteReport(c.Request.Context(), id); err != nil {
		h.respondError(c, log, err, msgReportNotFound, "Failed to delete report")
		return
	}
	respondOK(c, http.StatusOK, "Report deleted", nil)
}

// @Summary Upload a report photo
// @Description Stores a base64 data-URL image in object storage, or in the database fallback when storage fails.
// @Tags Media
// @Accept json
// @Produce json
// @Param image body ImageRequest true "Image as data-URL"
// @Success 200 {object} Response{data=StoredImageResponse}
// @Failure 400 {object} Response "Missing or undecodable image"
// @Failure 500 {object} Response "Storage and fallback both failed"
// @Router /reports/upload-image [post]
func (h *Handler) uploadImage(c *gin.Context) {
	log := h.log("uploadImage")

	input, ok := h.bindImage(c, log)
	if !ok {
		return
	}

	stored, err := h.mediaService.StoreImage(c.Request.Context(), input.ImageData)
	if err != nil {
		h.respondError(c, log, err, msgImageNotFound, "Failed to upload image")
		return
	}
	respondOK(c, http.StatusOK, "", ModelToStoredImageResponse(stored))
}

// @Summary Serve a fallback-stored photo
// @Tags Media
// @Produce image/jpeg
// @Produce image/png
// @Param id path string true "Fallback image id"
// @Success 200 {file} binary
// @Failure 404 {object} Response "Image not found"
// @Failure 500 {object} Response "Failed to retrieve image"
// @Router /reports/images/{id} [get]
func (h *Handler) getFallbackImage(c *gin.Context) {
	id := c.Param("id")
	log := h.log("getFallbackImage").WithField("id", id)

	image, err := h.mediaService.GetFallbackImage(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, log, err, msgImageNotFound, "Failed to retrieve image")
		return
	}
	c.Header("Cache-Control", "public, max-age=31536000")
	c.Data(http.StatusOK, image.ContentType, image.Data)
}

// @Summary Identify the species on a photo
// @Description Best effort: when the classifier is unavailable the response is still 200 with speciesIdentified=false.
// @Tags Media
// @Accept json
// @Produce json
// @Param image body ImageRequest true "Image as data-URL"
// @Success 200 {object} Response{data=SpeciesResponse}
// @Failure 400 {object} Response "Missing or undecodable image"
// @Failure 500 {object} Response "Species identification failed"
// @Router /reports/identify-species [post]
func (h *Handler) identifySpecies(c *gin.Context) {
	log := h.log("identifySpecies")

	input, ok := h.bindImage(c, log)
	if !ok {
		return
	}

	result, err := h.speciesService.IdentifySpecies(c.Request.Context(), input.ImageData)
	if err != nil {
		h.respondError(c, log, err, msgImageNotFound, "Species identification failed")
		return
	}
	respondOK(c, http.StatusOK, "", ModelToSpeciesResponse(result))
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) bindImage(c *gin.Context, log *logrus.Entry) (ImageRequest, bool) {
	var input ImageRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: msgNoImageData})
		return input, false
	}
	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: msgNoImageData})
		return input, false
	}
	return input, true
}

func parseFilter(status, priority string) (models.ReportFilter, error) {
	var filter models.ReportFilter
	if status != "" {
		st, err := models.ParseStatus(status)
		if err != nil {
			return filter, service.NewValidationError("Invalid status filter %q", status)
		}
		filter.Status = st
	}
	switch p := models.Priority(priority); p {
	case "":
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
		filter.Priority = p
	default:
		return filter, service.NewValidationError("Invalid priority filter %q", priority)
	}
	return filter, nil
}

// parseRadius: круг задаётся всеми тремя параметрами или не задаётся вовсе
func parseRadius(lat, lng, radius string) (*models.GeoRadius, error) {
	if lat == "" && lng == "" && radius == "" {
		return nil, nil
	}
	if lat == "" || lng == "" || radius == "" {
		return nil, service.NewValidationError("lat, lng and radius must be provided together")
	}
	var (
		near models.GeoRadius
		err  error
	)
	if near.Lat, err = strconv.ParseFloat(lat, 64); err != nil || near.Lat < -90 || near.Lat > 90 {
		return nil, service.NewValidationError("Invalid lat %q", lat)
	}
	if near.Lng, err = strconv.ParseFloat(lng, 64); err != nil || near.Lng < -180 || near.Lng > 180 {
		return nil, service.NewValidationError("Invalid lng %q", lng)
	}
	if near.RadiusKm, err = strconv.ParseFloat(radius, 64); err != nil || near.RadiusKm <= 0 {
		return nil, service.NewValidationError("Invalid radius %q", radius)
	}
	return &near, nil
}

func patchDecodeMessage(err error) string {
	if errors.Is(err, io.EOF) {
		return "No fields to update"
	}
	if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		return "Unknown field " + field
	}
	return msgInvalidBody
}
