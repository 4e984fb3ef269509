package preproc

import "errors"

// condFrame is one open conditional chain.
type condFrame struct {
	parentActive bool
	taken        bool
	active       bool
	sawElse      bool
	branches     int
	origin       Origin
}

// condStack tracks nested conditional chains within one file.
type condStack struct {
	frames []condFrame
}

func (c *condStack) depth() int { return len(c.frames) }

// active reports whether lines at the current position are emitted.
func (c *condStack) active() bool {
	if len(c.frames) == 0 {
		return true
	}
	return c.frames[len(c.frames)-1].active
}

// evaluating reports whether the condition of the next #elif would decide
// anything. Conditions are not evaluated otherwise, so skipped regions may
// hold expressions that would not parse.
func (c *condStack) evaluating() bool {
	if len(c.frames) == 0 {
		return false
	}
	top := c.frames[len(c.frames)-1]
	return top.parentActive && !top.taken && !top.sawElse
}

func (c *condStack) push(cond bool, origin Origin) {
	parent := c.active()
	active := parent && cond
	c.frames = append(c.frames, condFrame{
		parentActive: parent,
		taken:        active,
		active:       active,
		branches:     1,
		origin:       origin,
	})
}

var (
	errElifWithoutIf  = errors.New("#elif without #if")
	errElifAfterElse  = errors.New("#elif after #else")
	errElseWithoutIf  = errors.New("#else without #if")
	errElseAfterElse  = errors.New("#else after #else")
	errEndifWithoutIf = errors.New("#endif without #if")
)

func (c *condStack) elif(cond bool) error {
	if len(c.frames) == 0 {
		return errElifWithoutIf
	}
	top := &c.frames[len(c.frames)-1]
	if top.sawElse {
		return errElifAfterElse
	}
	top.branches++
	if !top.parentActive || top.taken {
		top.active = false
		return nil
	}
	top.active = cond
	top.taken = cond
	return nil
}

func (c *condStack) elseBranch() error {
	if len(c.frames) == 0 {
		return errElseWithoutIf
	}
	top := &c.frames[len(c.frames)-1]
	if top.sawElse {
		return errElseAfterElse
	}
	top.sawElse = true
	top.branches++
	top.active = top.parentActive && !top.taken
	top.taken = true
	return nil
}

// pop closes the innermost chain and returns it.
func (c *condStack) pop() (condFrame, error) {
	if len(c.frames) == 0 {
		return condFrame{}, errEndifWithoutIf
	}
	top := c.frames[len(c.frames)-1]
	c.frames = c.frames[:len(c.frames)-1]
	return top, nil
}

// unmatched reports whether a closed frame was a multi-branch selector in
// an active region that selected nothing.
func (f condFrame) unmatched() bool {
	return f.parentActive && !f.taken && !f.sawElse && f.branches > 1
}

func (c *condStack) innermost() Origin {
	return c.frames[len(c.frames)-1].origin
}
