package sqlstore

import (
	"strconv"
	"strings"
)

// Dialect separa lo poco que cambia entre Postgres y SQLite. Las queries se escriben con "?".
type Dialect struct {
	Name string

	// Numbered reescribe "?" como $1, $2... (Postgres).
	Numbered bool

	// ForUpdate se agrega a las lecturas que tienen que bloquear la fila dentro de una Tx.
	// SQLite no lo soporta: ahí la Tx ya es IMMEDIATE y serializa a los escritores.
	ForUpdate string

	// MapError traduce errores del driver (unique, FK) a errores de dominio.
	MapError func(error) error
}

func (d Dialect) Rebind(q string) string {
	if !d.Numbered {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) mapError(err error) error {
	if err == nil || d.MapError == nil {
		return err
	}
	return d.MapError(err)
}
