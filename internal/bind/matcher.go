package bind

// methodMatch is the result of signature matching.
type methodMatch struct {
	method *Method

	// viaEntity is true when a static-style stub reaches an instance method;
	// the stub's first parameter is then the instance.
	viaEntity bool
}

// matchMethod finds the unique method or package function whose effective
// parameter list equals the stub's.
//
// For instance methods reached from static-style stubs the first declared
// parameter stands for the instance and is dropped before comparison.
// Instance-style stubs reach instance methods through the held instance.
func (pc *PassContext) matchMethod(s *StubMember, name string) (methodMatch, error) {
	cands := pc.refl.FindMethods(pc.target, name)
	if len(cands) == 0 {
		return methodMatch{}, pc.fail(MethodNotFound, "no field, property, method or function named %q", name)
	}

	var hits []methodMatch
	for _, m := range cands {
		params := s.Params
		viaEntity := false
		if !m.Static && s.Static {
			if len(params) == 0 || !pc.isEntity(params[0].Type) {
				continue
			}
			params = params[1:]
			viaEntity = true
		}
		if pc.sameParams(params, s.Variadic, m.Params, m.Variadic) {
			hits = append(hits, methodMatch{method: m, viaEntity: viaEntity})
		}
	}

	switch len(hits) {
	case 0:
		return methodMatch{}, pc.fail(AmbiguousOrMissingMethod,
			"none of %d candidates named %q accepts %s", len(cands), name, describeParams(s.Params))
	case 1:
	default:
		return methodMatch{}, pc.fail(AmbiguousOrMissingMethod,
			"%d candidates named %q accept %s: %s and %s",
			len(hits), name, describeParams(s.Params), hits[0].method, hits[1].method)
	}

	hit := hits[0]
	if len(hit.method.Params) > MaxParams {
		return methodMatch{}, pc.fail(ParameterLimitExceeded,
			"%s has %d parameters, at most %d supported", hit.method, len(hit.method.Params), MaxParams)
	}
	for _, t := range append(paramTypes(hit.method.Params), hit.method.Results...) {
		if t.Unspellable() {
			return methodMatch{}, pc.fail(ParameterShapeMismatch,
				"%s uses %s, which generated code cannot name", hit.method, t)
		}
	}
	if !pc.sameTypes(s.Results, hit.method.Results) {
		return methodMatch{}, pc.fail(ParameterShapeMismatch,
			"stub returns %s, %s returns %s", describeTypes(s.Results), hit.method, describeTypes(hit.method.Results))
	}
	return hit, nil
}

func (pc *PassContext) sameParams(a []Param, av bool, b []Param, bv bool) bool {
	if av != bv {
		return false
	}
	return pc.sameTypes(paramTypes(a), paramTypes(b))
}

func (pc *PassContext) sameTypes(a, b []TypeRef) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !pc.refl.SameType(a[i], b[i]) {
			return false
		}
	}
	return true
}

// isEntity reports whether t is the target type or a pointer to it.
func (pc *PassContext) isEntity(t TypeRef) bool {
	return pc.refl.SameType(t.Deref(), pc.target)
}

func describeParams(ps []Param) string {
	return describeTypes(paramTypes(ps))
}

func describeTypes(ts []TypeRef) string {
	return FuncOf(ts, nil, false).GoString[len("func"):]
}
