// Package calc contém os cálculos puros de parcelamento e de vigência de planos.
// Nenhuma função deste pacote faz I/O ou guarda estado global.
package calc

import "time"

// DateOnly descarta hora, minuto e fuso, devolvendo a data civil em UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewDate monta uma data civil em UTC.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysInMonth retorna a quantidade de dias do mês.
func DaysInMonth(year int, month time.Month) int {
	// Dia 0 do mês seguinte é o último dia deste mês.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths soma meses de calendário mantendo o dia do mês e limitando-o ao
// último dia válido do mês de destino (31/01 + 1 mês = 29/02 em ano bissexto).
// time.AddDate normalizaria 31/02 para 02/03, por isso o cálculo é feito aqui.
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	ty, tm, _ := firstOfTarget.Date()
	if last := DaysInMonth(ty, tm); d > last {
		d = last
	}
	return time.Date(ty, tm, d, 0, 0, 0, 0, time.UTC)
}

// AddDays soma dias corridos a uma data civil.
func AddDays(t time.Time, days int) time.Time {
	return DateOnly(t).AddDate(0, 0, days)
}
