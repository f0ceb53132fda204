package pattern

var morseTable = map[rune]string{
	'a': ".-", 'b': "-...", 'c': "-.-.", 'd': "-..", 'e': ".",
	'f': "..-.", 'g': "--.", 'h': "....", 'i': "..", 'j': ".---",
	'k': "-.-", 'l': ".-..", 'm': "--", 'n': "-.", 'o': "---",
	'p': ".--.", 'q': "--.-", 'r': ".-.", 's': "...", 't': "-",
	'u': "..-", 'v': "...-", 'w': ".--", 'x': "-..-", 'y': "-.--",
	'z': "--..",
	'0': "-----", '1': ".----", '2': "..---", '3': "...--",
	'4': "....-", '5': ".....", '6': "-....", '7': "--...",
	'8': "---..", '9': "----.",
}

// Morse maps each character of text to its international Morse code
// and expands the result to steps: a dot becomes an onset, a dash an
// onset with a trailing rest (the long tone), a space a rest. Letters
// concatenate with no inter-letter gap and match in either case.
// Characters with no Morse mapping pass through literally, so raw
// ".-" sequences work too.
func Morse(text string) Pattern {
	code := make([]rune, 0, len(text)*4)
	for _, r := range text {
		key := r
		if key >= 'A' && key <= 'Z' {
			key += 'a' - 'A'
		}
		if m, ok := morseTable[key]; ok {
			code = append(code, []rune(m)...)
		} else {
			code = append(code, r)
		}
	}
	p := make(Pattern, 0, len(code)*2)
	for _, c := range code {
		switch c {
		case '.':
			p = append(p, true)
		case '-':
			p = append(p, true, false)
		case ' ':
			p = append(p, false)
		}
	}
	return p
}
