// Package preproc resolves a configuration template into a single text
// stream: it splices continued lines, strips comments, expands #include
// depth-first, evaluates #define/#undef left to right and selects exactly
// one branch of every #if/#ifdef/#elif/#else chain.
//
// The output keeps an origin for every line it emits, so that later stages
// can report JSON errors against the template file and line that produced
// them. Conditions the C preprocessor accepts silently but that hide
// mistakes in experiment templates, such as a multi-branch chain where no
// branch matched and no #else exists, are recorded as diagnostics.
package preproc
