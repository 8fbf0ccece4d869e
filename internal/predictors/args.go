package predictors

// PositionalDoc maps command-line arguments onto field names in order. Fields
// past the last argument are left out so their defaults apply; extra arguments
// are ignored.
func PositionalDoc(names, args []string) map[string]interface{} {
	doc := make(map[string]interface{}, len(names))
	for i, name := range names {
		if i >= len(args) {
			break
		}
		doc[name] = args[i]
	}
	return doc
}
