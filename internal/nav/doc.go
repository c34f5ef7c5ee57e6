// Package nav defines the vocabulary shared by the sensing, course and
// controller packages: navigation events reported by sensor daemons and
// actions chosen by a course.
//
// Actions are a closed sum type. Each variant is a struct implementing
// Action; consumers dispatch with a type switch:
//
//	switch a := action.(type) {
//	case nav.LineFollow:
//	case nav.Intersection:
//	case nav.Park:
//	case nav.Pullout:
//	case nav.Celebrate:
//	}
//
// Events travel from producers to the controller over a Bus, which gives
// each subscriber its own channel.
package nav
