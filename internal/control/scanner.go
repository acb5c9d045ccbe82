package control

import (
	"math"

	"caren/pkg/models"
)

// NoObstacle - sentinela retornada quando o setor não tem pontos.
// Os chamadores devem tratar +Inf como "nenhum obstáculo detectado".
var NoObstacle = math.Inf(1)

// normalizeDeg normaliza um ângulo para o intervalo [0,360)
func normalizeDeg(deg int) int {
	return ((deg % 360) + 360) % 360
}

// MinDistanceInSector encontra a distância mínima em um setor do lidar.
// Os limites são normalizados para [0,360) e o setor é inclusivo nos dois
// extremos. Quando start > end o setor cruza o ângulo 0 (ex: de 315 a 45)
// e a varredura cobre [start,359] mais [0,end].
func MinDistanceInSector(scan models.LidarScan, startDeg, endDeg int) float64 {
	if scan.IsEmpty() {
		return NoObstacle
	}

	start := normalizeDeg(startDeg)
	end := normalizeDeg(endDeg)

	min := NoObstacle

	if start <= end {
		for i := start; i <= end && i < len(scan); i++ {
			if scan[i].Distance < min {
				min = scan[i].Distance
			}
		}
	} else {
		// Setor cruza o ângulo 0
		for i := start; i < len(scan); i++ {
			if scan[i].Distance < min {
				min = scan[i].Distance
			}
		}
		for i := 0; i <= end && i < len(scan); i++ {
			if scan[i].Distance < min {
				min = scan[i].Distance
			}
		}
	}

	return min
}
