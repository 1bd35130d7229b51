package entity

// transitionAllowed reports whether a transition map permits from → to.
func transitionAllowed(transitions map[string][]string, from, to string) bool {
	for _, target := range transitions[from] {
		if target == to {
			return true
		}
	}
	return false
}
