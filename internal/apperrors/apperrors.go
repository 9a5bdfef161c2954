// Package apperrors определяет сентинельные ошибки доменного уровня.
// Сервисы возвращают их обёрнутыми через fmt.Errorf("%s: %w", op, err),
// обработчики сопоставляют их с HTTP-статусами через errors.Is.
package apperrors

import "errors"

var (
	// ErrUnauthenticated нет валидной сессии или пользователь не найден по токену.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidInput нарушение структуры или формата входных данных.
	ErrInvalidInput = errors.New("invalid input")
	// ErrServerNotConfigured не задан адрес казначейства, токена или RPC.
	// Ошибка оператора, а не пользователя.
	ErrServerNotConfigured = errors.New("server not configured")
	// ErrPaymentNotVerified данные сети не подтверждают заявленный платёж.
	// Сюда же сворачиваются ошибки RPC и эксплорера: клиент в любом случае
	// повторяет запрос с тем же хэшем.
	ErrPaymentNotVerified = errors.New("payment not verified")
	// ErrWalletNotSet у пользователя не сохранён адрес кошелька.
	ErrWalletNotSet = errors.New("user wallet not set")
	// ErrPlanNotFound план не существует.
	ErrPlanNotFound = errors.New("plan not found")
	// ErrPlanInactive план снят с продажи.
	ErrPlanInactive = errors.New("plan inactive")
	// ErrNotFound сущность не найдена.
	ErrNotFound = errors.New("not found")
	// ErrConflict конфликт уникальности или запрет удаления из-за
	// финансовой истории.
	ErrConflict = errors.New("conflict")
)
