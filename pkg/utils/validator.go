package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// validator.go - валидация входных данных API
//
// Проверки намеренно мягкие: биржи не публикуют строгих форматов ключей,
// поэтому валидация отсекает только очевидный мусор, а настоящая проверка
// происходит при первом обращении к бирже.

// Ошибки валидации
var (
	ErrInvalidSymbol        = errors.New("invalid symbol format")
	ErrInvalidAPIKey        = errors.New("API key must be at least 16 characters of [A-Za-z0-9-_]")
	ErrInvalidAPISecret     = errors.New("API secret must be at least 16 characters")
	ErrInvalidAPIPassphrase = errors.New("API passphrase must be at most 64 characters")
)

// symbolPattern - буквы, цифры и распространенные разделители (BTC-USDT, BTC/USDT)
var symbolPattern = regexp.MustCompile(`^[A-Za-z0-9/_-]{2,30}$`)

// apiKeyPattern - ключи бирж состоят из букв, цифр, дефисов и подчеркиваний
var apiKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{16,}$`)

// ValidateSymbol проверяет формат торгового символа (BTCUSDT)
func ValidateSymbol(symbol string) error {
	if !symbolPattern.MatchString(symbol) {
		return ErrInvalidSymbol
	}
	return nil
}

// NormalizeSymbol приводит символ к каноническому виду: верхний регистр
// без разделителей (btc-usdt -> BTCUSDT)
func NormalizeSymbol(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	replacer := strings.NewReplacer("-", "", "_", "", "/", "")
	return replacer.Replace(symbol)
}

// NormalizeExchange приводит имя биржи к каноническому виду
func NormalizeExchange(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ValidateAPIKey выполняет базовую проверку формата API ключа
func ValidateAPIKey(apiKey string) error {
	if !apiKeyPattern.MatchString(apiKey) {
		return ErrInvalidAPIKey
	}
	return nil
}

// ValidateAPISecret выполняет базовую проверку API секрета.
// Секреты бывают base64 со спецсимволами, поэтому проверяется только длина.
func ValidateAPISecret(secret string) error {
	if len(secret) < 16 {
		return ErrInvalidAPISecret
	}
	return nil
}

// ValidateAPIPassphrase проверяет опциональную passphrase.
// Пустая строка допустима: passphrase нужна не всем биржам.
func ValidateAPIPassphrase(passphrase string) error {
	if len(passphrase) > 64 {
		return ErrInvalidAPIPassphrase
	}
	return nil
}

// IsValidSymbol - bool-версия ValidateSymbol
func IsValidSymbol(symbol string) bool {
	return ValidateSymbol(symbol) == nil
}

// IsValidAPIKey - bool-версия ValidateAPIKey
func IsValidAPIKey(apiKey string) bool {
	return ValidateAPIKey(apiKey) == nil
}

// ValidationErrors накапливает ошибки валидации по полям
type ValidationErrors []FieldError

// FieldError - одна ошибка валидации конкретного поля
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Add добавляет ошибку поля
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, FieldError{Field: field, Message: message})
}

// AddError добавляет ошибку поля, если err != nil
func (v *ValidationErrors) AddError(field string, err error) {
	if err != nil {
		v.Add(field, err.Error())
	}
}

// HasErrors сообщает, накоплена ли хоть одна ошибка
func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

// Error собирает все ошибки в одну строку
func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return strings.Join(parts, "; ")
}
