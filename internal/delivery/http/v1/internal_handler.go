package v1

import (
	"net/http"

	"expert-backend/internal/delivery/http/middleware"
	"expert-backend/internal/delivery/http/response"
	"expert-backend/internal/domain"
	"expert-backend/pkg/apperror"
	"expert-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

// InternalHandler serves the identity checks the frontend calls on every
// protected page load. The status endpoints answer with bare JSON bodies.
type InternalHandler struct {
	identityUC domain.IdentityUsecase
	accountUC  domain.AccountUsecase
}

func NewInternalHandler(r *gin.RouterGroup, identityUC domain.IdentityUsecase, accountUC domain.AccountUsecase) {
	handler := &InternalHandler{
		identityUC: identityUC,
		accountUC:  accountUC,
	}

	r.GET("/is-admin", handler.IsAdmin)
	r.GET("/onboarding", handler.Onboarding)
	r.POST("/merge-user", handler.MergeUser)
	r.POST("/teams", handler.CreateTeam)
}

// IsAdmin godoc
// @Summary      Check admin privilege
// @Description  Reports whether the caller has the admin role. The status code is authoritative: a 401 body is not a "checked, not admin" answer.
// @Tags         internal
// @Produce      json
// @Success      200  {object}  domain.AdminStatus
// @Failure      401  {object}  domain.AdminStatus
// @Router       /internal/is-admin [get]
// @Security     BearerAuth
func (h *InternalHandler) IsAdmin(c *gin.Context) {
	res, status, err := h.identityUC.AdminStatus(c.Request.Context(), middleware.SubjectID(c))
	if err != nil {
		c.Error(err)
		return
	}

	if !res.Authenticated() {
		logUnauthorized(c)
		c.JSON(http.StatusUnauthorized, domain.AdminStatus{IsAdmin: false})
		return
	}

	c.JSON(http.StatusOK, status)
}

// Onboarding godoc
// @Summary      Check onboarding state
// @Description  Reports whether the caller still has to create a team. Unknown users are reported as needing setup.
// @Tags         internal
// @Produce      json
// @Success      200  {object}  domain.OnboardingStatus
// @Failure      401  {object}  domain.OnboardingStatus
// @Router       /internal/onboarding [get]
// @Security     BearerAuth
func (h *InternalHandler) Onboarding(c *gin.Context) {
	res, status, err := h.identityUC.OnboardingStatus(c.Request.Context(), middleware.SubjectID(c))
	if err != nil {
		c.Error(err)
		return
	}

	if !res.Authenticated() {
		logUnauthorized(c)
		c.JSON(http.StatusUnauthorized, domain.OnboardingStatus{NeedsSetup: true})
		return
	}

	c.JSON(http.StatusOK, status)
}

// MergeUser godoc
// @Summary      Merge a pre-provisioned account
// @Description  Moves a row registered under the caller's email onto the caller's subject id
// @Tags         internal
// @Produce      json
// @Success      200  {object}  domain.MergeResult
// @Failure      401  {object}  domain.MergeResult
// @Failure      403  {object}  response.Response
// @Failure      502  {object}  response.Response
// @Router       /internal/merge-user [post]
// @Security     BearerAuth
func (h *InternalHandler) MergeUser(c *gin.Context) {
	subjectID := middleware.SubjectID(c)
	if subjectID == "" {
		logUnauthorized(c)
		c.JSON(http.StatusUnauthorized, domain.MergeResult{Merged: false})
		return
	}

	result, err := h.accountUC.MergeCurrentUser(c.Request.Context(), subjectID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateTeam godoc
// @Summary      Create the caller's team
// @Description  Creates a team and attaches the caller to it
// @Tags         internal
// @Accept       json
// @Produce      json
// @Param        request  body      domain.CreateTeamRequest  true  "Team"
// @Success      201      {object}  response.Response{data=domain.Team}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /internal/teams [post]
// @Security     BearerAuth
func (h *InternalHandler) CreateTeam(c *gin.Context) {
	subjectID := middleware.SubjectID(c)
	if subjectID == "" {
		logUnauthorized(c)
		c.Error(apperror.Unauthorized("Authentication required"))
		return
	}

	var req domain.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body: "+err.Error(), nil)
		return
	}

	team, err := h.accountUC.CreateTeam(c.Request.Context(), subjectID, &req)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusCreated, "Team created", team)
}

func logUnauthorized(c *gin.Context) {
	security.DefaultLogger().LogUnauthorizedAccess(
		c.Request.Context(),
		c.ClientIP(),
		c.GetString(string(domain.KeyRequestID)),
		c.FullPath(),
	)
}
