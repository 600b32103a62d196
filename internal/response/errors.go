package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrEmailTaken         ErrCode = "EMAIL_TAKEN"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden       ErrCode = "FORBIDDEN"
	ErrAdminAccessOnly ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation      ErrCode = "VALIDATION_ERROR"
	ErrInvalidID       ErrCode = "INVALID_ID"
	ErrInvalidPayload  ErrCode = "INVALID_PAYLOAD"
	ErrInvalidLanguage ErrCode = "INVALID_LANGUAGE"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Exams & sessions ──────────────────────────────────────────────
	ErrExamNotAvailable     ErrCode = "EXAM_NOT_AVAILABLE"
	ErrNoQuestions          ErrCode = "NO_QUESTIONS"
	ErrInvalidQuestion      ErrCode = "INVALID_QUESTION"
	ErrSessionNotFound      ErrCode = "SESSION_NOT_FOUND"
	ErrSessionNotInProgress ErrCode = "SESSION_NOT_IN_PROGRESS"
	ErrUnknownQuestion      ErrCode = "UNKNOWN_QUESTION"
	ErrUnknownOption        ErrCode = "UNKNOWN_OPTION"
	ErrUnknownKey           ErrCode = "UNKNOWN_KEY"
	ErrIndexOutOfRange      ErrCode = "INDEX_OUT_OF_RANGE"

	// ─── Packages ──────────────────────────────────────────────────────
	ErrBundleFailed  ErrCode = "BUNDLE_FAILED"
	ErrBundleRunning ErrCode = "BUNDLE_RUNNING"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email ou senha incorretos."
	case ErrEmailTaken:
		return "Já existe uma conta com este email."
	case ErrTokenRequired:
		return "Token de autenticação obrigatório."
	case ErrTokenInvalid:
		return "Token de autenticação inválido ou expirado."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "Você não tem permissão para acessar este recurso."
	case ErrAdminAccessOnly:
		return "Recurso restrito a administradores."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Falha na validação. Verifique os dados enviados."
	case ErrInvalidID:
		return "Formato de ID inválido."
	case ErrInvalidPayload:
		return "Corpo da requisição inválido."
	case ErrInvalidLanguage:
		return "Idioma não suportado. Use pt, en, es ou fr."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Recurso não encontrado."
	case ErrConflict:
		return "O recurso já existe."

	// ─── Exams & sessions ──────────────────────────────────────────────
	case ErrExamNotAvailable:
		return "Este simulado não está disponível no momento."
	case ErrNoQuestions:
		return "Este simulado ainda não possui questões."
	case ErrInvalidQuestion:
		return "A questão precisa de pelo menos uma opção correta, e apenas uma se for de escolha única."
	case ErrSessionNotFound:
		return "Sessão não encontrada ou já encerrada."
	case ErrSessionNotInProgress:
		return "A sessão não está em andamento."
	case ErrUnknownQuestion:
		return "A questão não pertence a este simulado."
	case ErrUnknownOption:
		return "A opção não pertence a esta questão."
	case ErrUnknownKey:
		return "Atalho de teclado desconhecido."
	case ErrIndexOutOfRange:
		return "Número da questão fora do intervalo."

	// ─── Packages ──────────────────────────────────────────────────────
	case ErrBundleFailed:
		return "Erro ao criar pacotes automáticos."
	case ErrBundleRunning:
		return "A criação automática de pacotes já está em execução."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Muitas requisições. Tente novamente mais tarde."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Erro interno do servidor."
	default:
		return "Ocorreu um erro inesperado."
	}
}
