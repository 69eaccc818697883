// Package privacy restricts queries to the objects a viewer may read or
// write.
//
// Objects carry their permissions in element-collection fields holding the
// ids of the groups allowed to read (AllowedReadGroups) and to write
// (AllowedWriteGroups) them. A Policy turns the groups of the viewer found
// in the context into a filter criterion that is appended to the user
// filter:
//
//	p := privacy.Policy{
//	    Rules: []privacy.Rule{
//	        privacy.DenyIfNoViewer(),
//	        privacy.HasRole("admin"), // admins see everything
//	    },
//	}
//	ctx = privacy.WithViewer(ctx, &privacy.SimpleViewer{Groups: groups})
//	filter, err := p.Restrict(ctx, privacy.Read, filter)
//
// # Rule Evaluation
//
// Rules are evaluated in order until one returns a final decision:
//
//   - Allow: the filter is returned unrestricted
//   - Deny: the error is returned
//   - Skip or nil: continues to the next rule
//
// If all rules skip, the filter is restricted to the viewer groups. A viewer
// without groups matches no object.
//
// The permission fields are collections, so the restricted filter should be
// compiled with subqueries: joining a collection repeats the parent row once
// per matching element.
package privacy
