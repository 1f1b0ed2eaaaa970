package auth

// Claims es la identidad autenticada del request. UserID es el único campo que usa el
// dominio (dueño de granjas / grantee de shares).
type Claims struct {
	UserID string
	Email  string
}
