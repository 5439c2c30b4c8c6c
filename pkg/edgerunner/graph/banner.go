package graph

// Banner is the startup banner, exported for host programs and never
// printed by library code, ported from EdgineStarter's ART constant
// (original_source/edgine/src/starter/__init__.py). Decorative output
// has no place in the core runtime, matching the teacher's split
// between the library (pkg/snmpcollector) and its cmd/snmpcollector
// binary, which logs operational lines only.
const Banner = `
 _______  ______   _______  _______  _______  _     _  __    _  __    _  _______  ______
|       ||      | |       ||       ||       || | _ | ||  |  | ||  |  | ||       ||    _ |
|    ___||  _    ||    ___||    ___||   _   || || || ||   |_| ||   |_| ||    ___||   | ||
|   |___ | | |   ||   | __ |   |___ |  | |  ||       ||       ||       ||   |___ |   |_||_
|    ___|| |_|   ||   ||  ||    ___||  |_|  ||       ||  _    ||  _    ||    ___||    __  |
|   |___ |       ||   |_| ||   |___ |       ||   _   || | |   || | |   ||   |___ |   |  | |
|_______||______| |_______||_______||_______||__| |__||_|  |__||_|  |__||_______||___|  |_|
`
