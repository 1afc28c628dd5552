package httpdto

// Response is the envelope every endpoint writes. Data carries the
// payload on success, Error and Code the failure.
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// PageInfo echoes the requested page back alongside the unfiltered
// total, so clients can derive the page count themselves.
type PageInfo struct {
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Total int64 `json:"total"`
}

func NewSuccessResponse[T any](data T) Response[T] {
	return Response[T]{Success: true, Data: data}
}

func NewErrorResponse(err string, code string) Response[any] {
	return Response[any]{Success: false, Error: err, Code: code}
}
