package dataset

// First 40 rows of the Old Faithful geyser observations.
var faithfulEruptions = []float64{
	3.600, 1.800, 3.333, 2.283, 4.533, 2.883, 4.700, 3.600, 1.950, 4.350,
	1.833, 3.917, 4.200, 1.750, 4.700, 2.167, 1.750, 4.800, 1.600, 4.250,
	1.800, 1.750, 3.450, 3.067, 4.533, 3.600, 1.967, 4.083, 3.850, 4.433,
	4.300, 4.467, 3.367, 4.033, 3.833, 2.017, 1.867, 4.833, 1.833, 4.783,
}

var faithfulWaiting = []float64{
	79, 54, 74, 62, 85, 55, 88, 85, 51, 85,
	54, 84, 78, 47, 83, 52, 62, 84, 52, 79,
	51, 47, 78, 69, 74, 83, 55, 76, 78, 79,
	73, 77, 66, 80, 74, 52, 48, 80, 59, 90,
}

// Pore area in pixels of 48 petroleum reservoir rock samples.
var rockArea = []float64{
	4990, 7002, 7558, 7352, 7943, 7979, 9333, 8209, 8393, 6425,
	9364, 8624, 10651, 8868, 9417, 8874, 10962, 10743, 11878, 9867,
	7838, 11876, 12212, 8233, 6360, 4193, 7416, 5246, 6509, 4895,
	6775, 7894, 5980, 5318, 7392, 7894, 3469, 1468, 3524, 5267,
	5048, 1016, 5605, 8793, 3475, 1651, 5514, 9718,
}
