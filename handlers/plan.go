package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"travelplanner/services"
)

// GeneratePlan is POST /api/generate_plan.
func (h *Handler) GeneratePlan(c *gin.Context) {
	plan, ok := h.generate(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, plan)
}

// GeneratePlanPDF runs the same pipeline and streams the plan back as a PDF.
// Nothing is stored.
func (h *Handler) GeneratePlanPDF(c *gin.Context) {
	plan, ok := h.generate(c)
	if !ok {
		return
	}

	pdfBytes, err := h.pdf.Render(plan)
	if err != nil {
		requestLog(c, h.log).Errorf("PDF generation failed for plan %s: %v", plan.PlanID, err)
		abortWithError(c, http.StatusInternalServerError, "服务器内部错误", err.Error())
		return
	}

	requestLog(c, h.log).Infof("PDF generated for plan %s (%d bytes)", plan.PlanID, len(pdfBytes))
	c.Header("Content-Disposition", "attachment; filename=travel-plan-"+plan.PlanID+".pdf")
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

func (h *Handler) generate(c *gin.Context) (*services.TravelPlanResponse, bool) {
	var req services.TravelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "请求参数错误", err.Error())
		return nil, false
	}

	log := requestLog(c, h.log)
	log.Infof("plan request: %s, %d days", req.Destination, req.Days)

	plan, err := h.planner.Generate(c.Request.Context(), req)
	if err != nil {
		log.Warnf("plan request failed: %v", err)
		planError(c, err)
		return nil, false
	}
	return plan, true
}
