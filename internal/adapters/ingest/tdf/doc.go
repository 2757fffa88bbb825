// Package tdf reads and writes timeline data files
//
// A file is a short XML header followed by one <Patient> block per subject,
// each block starting and ending on its own line:
//
//	<TDF version="1.0">
//	<Head>...</Head>
//	<PatientList>
//	<Patient id="1" gender="M">
//	    <E C="Admit" T="10:08:00" />
//	</Patient>
//	</PatientList>
//	</TDF>
//
// Files are too large to parse whole. The Planner cuts them into byte
// partitions and the Scanner locates the records that start inside one
// partition, so workers can process partitions independently.
package tdf
