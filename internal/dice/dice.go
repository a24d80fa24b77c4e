// Package dice реализует броски кубиков для чата: валидация параметров,
// равномерные броски и форматирование результата в сообщение.
package dice

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// Ограничения броска.
const (
	MinCount = 1
	MaxCount = 20
)

// allowedSides - поддерживаемые типы кубиков.
var allowedSides = map[int]struct{}{
	4: {}, 6: {}, 8: {}, 10: {}, 12: {}, 20: {}, 100: {},
}

var (
	ErrInvalidCount = errors.New("dice count must be between 1 and 20")
	ErrInvalidSides = errors.New("unsupported dice type")
)

// Result - результат одного броска набора кубиков.
type Result struct {
	Count    int   `json:"count"`
	Sides    int   `json:"sides"`
	Modifier int   `json:"modifier"`
	Rolls    []int `json:"rolls"`
	Total    int   `json:"total"`
}

// Roller бросает кубики. Источник случайности инжектируется для тестов.
type Roller struct {
	intn func(n int) int
}

// New создает Roller на стандартном источнике случайности.
func New() *Roller {
	return &Roller{intn: rand.Intn}
}

// NewWithSource создает Roller на заданной функции выбора случайного числа
// из [0, n). Используется в тестах для детерминированных бросков.
func NewWithSource(intn func(n int) int) *Roller {
	return &Roller{intn: intn}
}

// Roll бросает count кубиков с sides гранями и прибавляет modifier.
// Недопустимые параметры отклоняются до каких-либо бросков.
func (r *Roller) Roll(count, sides, modifier int) (*Result, error) {
	if count < MinCount || count > MaxCount {
		return nil, ErrInvalidCount
	}
	if _, ok := allowedSides[sides]; !ok {
		return nil, ErrInvalidSides
	}

	rolls := make([]int, count)
	total := 0
	for i := range rolls {
		rolls[i] = r.intn(sides) + 1
		total += rolls[i]
	}

	return &Result{
		Count:    count,
		Sides:    sides,
		Modifier: modifier,
		Rolls:    rolls,
		Total:    total + modifier,
	}, nil
}

// Format возвращает готовую строку для отправки в чат,
// например: 🎲 Rolls 2d6 +1: [3, 5] (8 +1) = **9**
func (res *Result) Format() string {
	parts := make([]string, len(res.Rolls))
	sum := 0
	for i, roll := range res.Rolls {
		parts[i] = strconv.Itoa(roll)
		sum += roll
	}
	rollsText := strings.Join(parts, ", ")

	modText := ""
	if res.Modifier != 0 {
		modText = fmt.Sprintf(" %+d", res.Modifier)
	}

	if modText == "" {
		return fmt.Sprintf("🎲 Rolls %dd%d: [%s] = **%d**", res.Count, res.Sides, rollsText, res.Total)
	}
	return fmt.Sprintf("🎲 Rolls %dd%d%s: [%s] (%d%s) = **%d**",
		res.Count, res.Sides, modText, rollsText, sum, modText, res.Total)
}
