// Package validation содержит функции валидации входных данных.
package validation

import (
	"errors"
	"net/url"
	"strconv"
	"time"
	"unicode"
)

// Параметры постраничной выдачи.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	MaxPage      = 100000
	maxIDLength  = 64
)

var (
	// ErrInvalidPagination возвращается для некорректных page или limit.
	ErrInvalidPagination = errors.New("invalid pagination")
	// ErrInvalidPeriod возвращается для некорректных month или year.
	ErrInvalidPeriod = errors.New("invalid period")
	// ErrInvalidDate возвращается для даты в неизвестном формате.
	ErrInvalidDate = errors.New("invalid date")
)

// IsValidID проверяет идентификатор сущности: непустой, до 64 символов,
// только латинские буквы, цифры, дефис и подчёркивание.
func IsValidID(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}
	for _, ch := range id {
		if ch > unicode.MaxASCII {
			return false
		}
		if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && ch != '-' && ch != '_' {
			return false
		}
	}
	return true
}

// ParsePagination читает page и limit из строки запроса.
// Отсутствующие значения заменяются значениями по умолчанию, limit ограничен MaxLimit,
// page больше MaxPage считается ошибкой.
func ParsePagination(q url.Values) (page, limit int, err error) {
	page, limit = DefaultPage, DefaultLimit

	if v := q.Get("page"); v != "" {
		page, err = strconv.Atoi(v)
		if err != nil || page < 1 || page > MaxPage {
			return 0, 0, ErrInvalidPagination
		}
	}

	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 {
			return 0, 0, ErrInvalidPagination
		}
		if limit > MaxLimit {
			limit = MaxLimit
		}
	}

	return page, limit, nil
}

// ParsePeriod читает month и year из строки запроса.
// При отсутствии используется текущий месяц из now.
func ParsePeriod(q url.Values, now time.Time) (month, year int, err error) {
	month, year = int(now.Month()), now.Year()

	if v := q.Get("month"); v != "" {
		month, err = strconv.Atoi(v)
		if err != nil || month < 1 || month > 12 {
			return 0, 0, ErrInvalidPeriod
		}
	}

	if v := q.Get("year"); v != "" {
		year, err = strconv.Atoi(v)
		if err != nil || year < 2000 || year > 9999 {
			return 0, 0, ErrInvalidPeriod
		}
	}

	return month, year, nil
}

// ParseDate разбирает дату в формате RFC 3339 или YYYY-MM-DD в указанном часовом поясе.
// Пустая строка возвращает nil.
func ParseDate(v string, loc *time.Location) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, v, loc)
	if err != nil {
		return nil, ErrInvalidDate
	}
	return &t, nil
}

// ParseBool разбирает необязательный логический параметр. Пустая строка возвращает nil.
func ParseBool(v string) (*bool, error) {
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
