package request

type CreateQueryRequest struct {
	QueryText string `json:"query_text"`
}
