package card

import "net/http"

// Kind classifies extraction failures.
type Kind string

const (
	KindInvalidInput  Kind = "invalid_input"
	KindConfiguration Kind = "configuration"
	KindRateLimited   Kind = "rate_limited"
	KindUpstream      Kind = "upstream"
	KindExtraction    Kind = "extraction_failed"
	KindInternal      Kind = "internal"
	KindNotFound      Kind = "not_found"
	KindClient        Kind = "client"
)

// Error is a classified failure carrying the HTTP status and the short
// Portuguese message shown to the user. Diagnostic detail travels through
// the wrapped cause and the server log only.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches errors of the same kind so wrapped copies compare equal to
// their sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Wrap returns a copy of the error carrying a cause.
func (e *Error) Wrap(cause error) *Error {
	clone := *e
	clone.cause = cause
	return &clone
}

var (
	ErrNoImage         = &Error{Kind: KindInvalidInput, Status: http.StatusBadRequest, Message: "Imagem não fornecida"}
	ErrBadImage        = &Error{Kind: KindInvalidInput, Status: http.StatusBadRequest, Message: "Imagem inválida ou corrompida"}
	ErrNotConfigured   = &Error{Kind: KindConfiguration, Status: http.StatusInternalServerError, Message: "Serviço de IA não configurado"}
	ErrRateLimited     = &Error{Kind: KindRateLimited, Status: http.StatusTooManyRequests, Message: "Limite de requisições excedido. Tente novamente em alguns minutos."}
	ErrUpstream        = &Error{Kind: KindUpstream, Status: http.StatusInternalServerError, Message: "Erro ao processar imagem"}
	ErrExtraction      = &Error{Kind: KindExtraction, Status: http.StatusInternalServerError, Message: "Não foi possível extrair dados da imagem"}
	ErrInternal        = &Error{Kind: KindInternal, Status: http.StatusInternalServerError, Message: "Erro interno ao processar a solicitação"}
	ErrSessionNotFound = &Error{Kind: KindNotFound, Status: http.StatusNotFound, Message: "Sessão não encontrada"}
	ErrRecordNotFound  = &Error{Kind: KindNotFound, Status: http.StatusNotFound, Message: "Registro não encontrado"}
	ErrConnection      = &Error{Kind: KindClient, Status: http.StatusBadGateway, Message: "Não foi possível conectar ao serviço de processamento."}
)

// errorForStatus rebuilds a gateway error kind from a response status when
// the extraction gateway is reached over HTTP.
func errorForStatus(status int, message string) *Error {
	kind := KindUpstream
	switch status {
	case http.StatusBadRequest:
		kind = KindInvalidInput
	case http.StatusTooManyRequests:
		kind = KindRateLimited
	case http.StatusNotFound:
		kind = KindNotFound
	}
	return &Error{Kind: kind, Status: status, Message: message}
}
