//go:build !windows

package everything

// registryCandidates returns nothing; only Windows has an uninstall registry.
func registryCandidates() []string {
	return nil
}
