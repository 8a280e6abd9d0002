/*package snapio writes particle snapshots in the Gadget family of
formats. Every level's particles land in one file: a 256-byte header,
then positions, velocities, and 8-byte IDs, each wrapped in Fortran
record framing. A trailing mass block is added only when the levels
carry unequal particle masses.
*/
package snapio

// Precision selects the word size of the position, velocity, and mass
// blocks. IDs are always 8 bytes.
type Precision int

const (
	Float32 Precision = iota
	Float64
)

// Header holds the cosmology stamped into a snapshot's header block.
// Lengths are comoving Mpc/h and masses are 10^10 Msun/h.
type Header struct {
	Redshift float64
	L float64
	OmegaM, OmegaL, H100 float64
}
