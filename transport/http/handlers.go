package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/learnchain/adapters/wallet"
	"github.com/layer-3/learnchain/core"
	"github.com/layer-3/learnchain/ports"
	"github.com/layer-3/learnchain/service"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// maxUploadMemory is how much of a course upload is buffered in memory
// before spilling to temporary files.
const maxUploadMemory = 32 << 20

// Handlers contains HTTP handlers for the gateway pages
type Handlers struct {
	sessions     *service.SessionService
	marketplace  *service.MarketplaceService
	wallet       ports.Wallet
	secureCookie bool
}

// NewHandlers creates new handlers. A nil wallet means no server side
// wallet; signatures must then come from the browser.
func NewHandlers(sessions *service.SessionService, marketplace *service.MarketplaceService, w ports.Wallet, secureCookie bool) *Handlers {
	if w == nil {
		w = wallet.Absent{}
	}
	return &Handlers{
		sessions:     sessions,
		marketplace:  marketplace,
		wallet:       w,
		secureCookie: secureCookie,
	}
}

// Healthz reports liveness
func (h *Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Login handles the login form
func (h *Handlers) Login(c *gin.Context) {
	var req struct {
		UserName string `json:"uName" form:"uName" binding:"required"`
		Password string `json:"pass" form:"pass" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": service.MsgInvalidInput})
		return
	}

	session, cookie, err := h.sessions.Login(c.Request.Context(), req.UserName, req.Password)
	if err != nil {
		h.fail(c, "login failed", err)
		return
	}

	h.setSessionCookie(c, cookie, int(h.sessions.SessionTTL().Seconds()))
	c.JSON(http.StatusOK, gin.H{
		"state":       core.FlowSuccess,
		"redirect":    "/marketplace",
		"displayName": session.DisplayName(),
	})
}

// Signup handles the signup form
func (h *Handlers) Signup(c *gin.Context) {
	var req struct {
		UserName      string `json:"uName" form:"uName"`
		Name          string `json:"name" form:"name"`
		Password      string `json:"pass" form:"pass"`
		WalletAddress string `json:"walletAddress" form:"walletAddress"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, core.Fail(service.MsgInvalidInput))
		return
	}

	outcome, err := h.sessions.Signup(c.Request.Context(), core.SignupRequest{
		Username:      req.UserName,
		Name:          req.Name,
		Password:      req.Password,
		WalletAddress: req.WalletAddress,
	})
	h.respond(c, "signup failed", outcome, err)
}

// Logout ends the session and sends the user back to the root page
func (h *Handlers) Logout(c *gin.Context) {
	session := currentSession(c)
	if err := h.sessions.Logout(c.Request.Context(), session); err != nil {
		h.fail(c, "logout failed", err)
		return
	}

	h.setSessionCookie(c, "", -1)
	if wantsHTML(c.Request) {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.JSON(http.StatusOK, core.Navigate("/", ""))
}

// Session returns what the pages show about the logged in user
func (h *Handlers) Session(c *gin.Context) {
	session := currentSession(c)
	c.JSON(http.StatusOK, gin.H{
		"displayName":   session.DisplayName(),
		"uName":         session.UserName,
		"walletAddress": session.WalletAddress,
	})
}

// Marketplace lists every course
func (h *Handlers) Marketplace(c *gin.Context) {
	page, err := h.marketplace.ListCourses(c.Request.Context(), currentSession(c))
	if err != nil {
		h.fail(c, "list courses failed", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// BuyCourse signs the purchase and mints the ownership token
func (h *Handlers) BuyCourse(c *gin.Context) {
	w, err := h.walletFor(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, core.Fail(service.MsgInvalidInput))
		return
	}

	outcome, err := h.marketplace.BuyCourse(c.Request.Context(), currentSession(c), c.Param("uuid"), w)
	h.respond(c, "buy course failed", outcome, err)
}

// MyCourses lists the courses owned by the wallet
func (h *Handlers) MyCourses(c *gin.Context) {
	w, err := h.walletFor(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, core.Fail(service.MsgInvalidInput))
		return
	}

	owned, err := h.marketplace.MyCourses(c.Request.Context(), currentSession(c), w)
	if err != nil {
		h.fail(c, "list owned courses failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": owned})
}

// CourseDetail shows one course with its content links
func (h *Handlers) CourseDetail(c *gin.Context) {
	detail, err := h.marketplace.CourseDetail(c.Request.Context(), currentSession(c), c.Param("uuid"))
	if err != nil {
		h.fail(c, "course detail failed", err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// CreateCourse handles the multipart course upload form
func (h *Handlers) CreateCourse(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxUploadMemory); err != nil {
		c.JSON(http.StatusBadRequest, core.Fail(service.MsgInvalidInput))
		return
	}
	defer c.Request.MultipartForm.RemoveAll() //nolint:errcheck

	price, err := decimal.NewFromString(c.PostForm("price"))
	if err != nil {
		c.JSON(http.StatusBadRequest, core.Fail(service.MsgInvalidInput))
		return
	}

	files := c.Request.MultipartForm.File["material"]
	materials := make([]core.Material, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			h.fail(c, "open upload failed", err)
			return
		}
		defer f.Close()
		materials = append(materials, core.Material{Name: fh.Filename, Body: f})
	}

	outcome, err := h.marketplace.CreateCourse(c.Request.Context(), currentSession(c), core.CourseDraft{
		Title:       c.PostForm("title"),
		Price:       price,
		Description: c.PostForm("description"),
		Materials:   materials,
	})
	h.respond(c, "create course failed", outcome, err)
}

// walletFor picks the wallet of a signing flow: a signature the browser
// already produced when the body carries one, the server wallet otherwise.
func (h *Handlers) walletFor(c *gin.Context) (ports.Wallet, error) {
	var proof struct {
		Address   string `json:"address"`
		Signature string `json:"signature"`
		Message   string `json:"message"`
	}
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return h.wallet, nil
	}
	if err := c.ShouldBindJSON(&proof); err != nil {
		if errors.Is(err, io.EOF) {
			return h.wallet, nil
		}
		return nil, err
	}
	if proof.Signature == "" {
		return h.wallet, nil
	}
	return wallet.Presigned{Account: proof.Address, Message: proof.Message, Signature: proof.Signature}, nil
}

func (h *Handlers) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, value, maxAge, "/", "", h.secureCookie, true)
}

// respond writes a flow outcome with the status its error maps to.
func (h *Handlers) respond(c *gin.Context, msg string, outcome core.Outcome, err error) {
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg(msg)
		c.JSON(statusFor(err), outcome)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (h *Handlers) fail(c *gin.Context, msg string, err error) {
	zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg(msg)
	c.JSON(statusFor(err), core.Fail(service.Describe(err)))
}

func statusFor(err error) int {
	var sc interface{ StatusCode() int }
	switch {
	case errors.Is(err, core.ErrInvalidRequest),
		errors.Is(err, core.ErrInvalidAddress),
		errors.Is(err, core.ErrInvalidContentID):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidCredentials),
		errors.Is(err, core.ErrUnauthenticated),
		errors.Is(err, core.ErrSessionNotFound),
		errors.Is(err, core.ErrInvalidToken),
		errors.Is(err, core.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrUserRejected):
		return http.StatusForbidden
	case errors.Is(err, core.ErrProviderAbsent),
		errors.Is(err, core.ErrWalletNotConnected):
		return http.StatusPreconditionFailed
	case errors.Is(err, core.ErrInvalidSignature):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &sc), errors.Is(err, core.ErrBackend):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
