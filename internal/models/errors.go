package models

import "errors"

// Ошибки уровня приложения. Слои оборачивают их через fmt.Errorf("%w: ...")
// и проверяют через errors.Is на границе транспорта.
var (
	// ErrNotFound - запись отсутствует. Это сигнал отсутствия, не сбой хранилища,
	// и он никогда не оборачивается в ErrStorage.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation - некорректный или отсутствующий ввод вызывающей стороны.
	ErrValidation = errors.New("invalid input data")

	// ErrGeneration - сбой бэкенда генерации или несоответствие схеме.
	ErrGeneration = errors.New("plan generation failed")

	// ErrStorage - сбой хранилища (соединение, ограничения, таймаут).
	ErrStorage = errors.New("storage failure")
)
