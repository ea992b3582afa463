package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouter_NavigateHasNoSideEffects(t *testing.T) {
	r := NewRouter("")
	called := false
	r.OnRedirect(func(from, to string) { called = true })

	r.Navigate("/reports")

	assert.Equal(t, "/reports", r.Location())
	assert.Empty(t, r.Redirects())
	assert.False(t, called)
}

func TestRouter_Redirect(t *testing.T) {
	r := NewRouter("/cari/dashboard")

	var gotFrom, gotTo string
	r.OnRedirect(func(from, to string) {
		gotFrom, gotTo = from, to
	})

	r.Redirect("/cari/login")

	assert.Equal(t, "/cari/login", r.Location())
	assert.Equal(t, []string{"/cari/login"}, r.Redirects())
	assert.Equal(t, "/cari/dashboard", gotFrom)
	assert.Equal(t, "/cari/login", gotTo)
}
