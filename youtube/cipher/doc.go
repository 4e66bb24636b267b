/*
Package cipher recovers plaintext stream signatures from the obfuscated
player script served with each video page.

Every player deployment ships a small operations object whose four properties
implement the same array operations (reverse, slice, splice from the start,
swap with the first element) under freshly minified names, plus a function
that splits the signature into characters, calls those properties in some
order with literal operands and joins the result. The package finds both by
structural pattern matching, resolves which property is which operation,
and records the call order as a TokenSequence. No script is ever executed.

# Architecture

 1. Pattern library (patterns.go)
    - One shape matcher per operation, the object matcher and the function matcher
    - Shapes are grouped into strategies: "classic" for the fixed a/b/c parameter
      names, "renamed" for arbitrary names, whitespace and let/const declarations

 2. Key resolution and extraction (resolve.go, extract.go)
    - Keys are resolved per shape; when two shapes claim a key the later one wins
    - The call walk only accepts the resolved keys on the located object

 3. Version cache (cache.go)
    - Keyed by the version id in the script URL
    - One mutex across lookup and fetch+extract+store; failures are not stored

 4. Transformer (transform.go)
    - Works on runes; out of range operands and unknown kinds are errors

# Usage

	cache := cipher.NewCache().WithMetrics(cipher.NewMetrics(prometheus.DefaultRegisterer))
	d := cipher.NewDecipherer(httpClient, cache)

	sig, err := d.Decipher(ctx, playerURL, s)
	if err != nil {
		switch {
		case cipher.IsFetchError(err):
			// network or URL problem, retry later
		case cipher.IsExtractionError(err):
			// the player script changed shape
		}
		return err
	}

# Error Codes

  - OBJECT_NOT_FOUND: operations object missing or none of its properties recognised
  - FUNCTION_NOT_FOUND: decipher function missing
  - PATTERN_MISMATCH: the call sequence used none of the resolved keys
  - OPERAND_PARSE_FAILED: a call operand is not a valid int
  - VERSION_NOT_FOUND: no version id in the script URL
  - SCRIPT_FETCH_FAILED: the fetcher returned an error
  - OPERAND_OUT_OF_RANGE, UNKNOWN_OPERATION: the sequence cannot be applied to the cipher

# Limitations

The cache never evicts. The number of live player versions is small, but a
long running process accumulates one entry per version it has seen.
*/
package cipher
