package asm

// Fake is a canned Assembler for deterministic tests: it records every
// call and returns Out or Err without touching any toolchain.
type Fake struct {
	Out []byte
	Err error

	// Calls records the source text of each invocation in order.
	Calls []string
}

// Assemble implements Assembler.
func (f *Fake) Assemble(source string, _ uint32) ([]byte, error) {
	f.Calls = append(f.Calls, source)
	if f.Err != nil {
		return nil, f.Err
	}
	return append([]byte(nil), f.Out...), nil
}
