/*
Package dsl builds exercises in Go instead of markdown files.

It is handy for tests, demos and generated content:

	b := dsl.New()
	b.Exercise("palace").
		Title("Memory Palace").
		Step("door", "Picture your front door.").
		Step("hall", "Walk down the hall.").Visual("a long candle-lit hall").
		Step("stairs", "Hold to climb the stairs.").Hold()

	catalog, err := b.Build()
*/
package dsl
