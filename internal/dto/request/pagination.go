package request

import (
	"net/http"

	"moveup-booking/pkg/utils"
)

type PaginatedRequest struct {
	Page    int `json:"page" validate:"min=1"`
	PerPage int `json:"per_page" validate:"min=1,max=100"`
}

// PaginationFromQuery reads ?page= and ?per_page= with defaults.
func PaginationFromQuery(r *http.Request) PaginatedRequest {
	q := r.URL.Query()
	return PaginatedRequest{
		Page:    utils.ParseInt(q.Get("page"), 1),
		PerPage: utils.ParseInt(q.Get("per_page"), utils.DefaultPageSize),
	}
}

func (p PaginatedRequest) Window() utils.Page {
	return utils.NewPage(p.Page, p.PerPage)
}

func (p PaginatedRequest) Offset() int {
	return p.Window().Offset()
}

func (p PaginatedRequest) Limit() int {
	return p.Window().Size
}
