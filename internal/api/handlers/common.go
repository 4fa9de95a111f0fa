package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/jobboard/internal/models"
	pgrepo "github.com/yoockh/jobboard/internal/repositories/postgres"
	"github.com/yoockh/jobboard/internal/utils"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
	maxBodyBytes   = 1 << 20
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
	Error   string     `json:"error,omitempty"`
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)
	_ = c.Error(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		body := APIError{Code: ae.Code, Message: ae.Message}
		// only request-shape errors carry their detail back to the client
		if ae.Code == utils.CodeInvalidArgument && ae.Err != nil {
			body.Error = ae.Err.Error()
		}
		c.AbortWithStatusJSON(status, body)
		return
	}

	c.AbortWithStatusJSON(status, APIError{
		Code:    utils.CodeInternal,
		Message: http.StatusText(status),
	})
}

func requireUserID(c *gin.Context) (uint, bool) {
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(uint); ok && id != 0 {
			return id, true
		}
	}

	writeError(c, utils.E(utils.CodeUnauthorized, "Auth", "unauthorized", nil))
	return 0, false
}

func currentUser(c *gin.Context) *models.User {
	v, _ := c.Get("user")
	u, _ := v.(*models.User)
	return u
}

// bindJSON decodes a create body; unknown keys are ignored.
func bindJSON(c *gin.Context, op string, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid JSON body", err))
		return false
	}
	return true
}

// bindStrict decodes an update body and rejects keys outside dst's fields.
func bindStrict(c *gin.Context, op string, dst any) bool {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "failed to read body", err))
		return false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid JSON body", err))
		return false
	}
	if dec.More() {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid JSON body", errors.New("trailing data")))
		return false
	}
	return true
}

func pathID(c *gin.Context, op, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid "+name, err))
		return 0, false
	}
	return uint(n), true
}

func queryUint(c *gin.Context, op, name string) (*uint, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid "+name, err))
		return nil, false
	}
	v := uint(n)
	return &v, true
}

func queryBool(c *gin.Context, op, name string) (*bool, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid "+name, err))
		return nil, false
	}
	return &b, true
}

// pageFromQuery reads page (1-based) and per_page.
func pageFromQuery(c *gin.Context, op string) (pgrepo.Page, bool) {
	page, perPage := 1, defaultPerPage
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "page must be a positive integer", err))
			return pgrepo.Page{}, false
		}
		page = n
	}
	if raw := c.Query("per_page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "per_page must be a positive integer", err))
			return pgrepo.Page{}, false
		}
		perPage = min(n, maxPerPage)
	}
	return pgrepo.Page{Limit: perPage, Offset: (page - 1) * perPage}, true
}

func writeList(c *gin.Context, rows any, total int64) {
	c.Header("X-Total-Count", strconv.FormatInt(total, 10))
	c.JSON(http.StatusOK, rows)
}

// expandSet maps the public name of an includable relation to its preload path.
type expandSet map[string]string

var (
	jobExpand         = expandSet{"company": "Company", "recruiter": "Recruiter"}
	applicationExpand = expandSet{"job": "Job", "applicant": "User", "user": "User", "job.company": "Job.Company"}
	savedJobExpand    = expandSet{"job": "Job", "job.company": "Job.Company"}
	userExpand        = expandSet{"company": "Company"}
)

// parseExpand reads the comma separated _expand parameter. Unknown names are
// rejected.
func parseExpand(c *gin.Context, op string, allowed expandSet) ([]string, bool) {
	var out []string
	seen := map[string]bool{}
	for _, raw := range c.QueryArray("_expand") {
		for _, name := range strings.Split(raw, ",") {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" {
				continue
			}
			rel, ok := allowed[name]
			if !ok {
				writeError(c, utils.E(utils.CodeInvalidArgument, op, "cannot expand "+name, nil))
				return nil, false
			}
			if !seen[rel] {
				seen[rel] = true
				out = append(out, rel)
			}
		}
	}
	return out, true
}
