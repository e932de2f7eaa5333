package domain

import (
	"fmt"
	"strings"
)

// Direction is a swiper's judgment about a target.
type Direction string

const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
	DirectionSuper Direction = "super"
)

// ParseDirection normalizes user input ("Right", " super ") into a Direction.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("unknown swipe direction %q: %w", s, ErrInvalidArgument)
	}
	return d, nil
}

func (d Direction) Valid() bool {
	switch d {
	case DirectionLeft, DirectionRight, DirectionSuper:
		return true
	}
	return false
}

// IsLike reports whether the direction counts towards a mutual like.
func (d Direction) IsLike() bool {
	return d == DirectionRight || d == DirectionSuper
}

// LikeDirections is the set matched when looking for a reciprocal like.
var LikeDirections = []Direction{DirectionRight, DirectionSuper}
