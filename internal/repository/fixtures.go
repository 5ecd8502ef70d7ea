package repository

import (
	"fmt"

	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/model"
)

// DemoFixtures возвращает небольшой отель для запуска без БД. Совпадает с сид-миграцией PostgreSQL.
func DemoFixtures() Fixtures {
	rules := model.DefaultRateRules()
	f := Fixtures{
		RoomTypes: []model.RoomType{
			{ID: 1, Name: "Standard", BaseRateCents: 10000, Capacity: 2, Rules: rules},
			{ID: 2, Name: "Deluxe", BaseRateCents: 16000, Capacity: 3, Rules: rules},
			{ID: 3, Name: "Suite", BaseRateCents: 30000, Capacity: 4, Rules: rules},
		},
		Guests: []model.Guest{
			{ID: 1, Name: "Demo Guest", Email: "guest@example.com"},
			{ID: 2, Name: "Second Guest", Email: "second@example.com"},
		},
	}

	var id int64
	for floor := 1; floor <= 3; floor++ {
		for n := 1; n <= 4; n++ {
			id++
			f.Rooms = append(f.Rooms, model.Room{
				ID:         id,
				Number:     fmt.Sprintf("%d%02d", floor, n),
				Floor:      floor,
				RoomTypeID: int64(floor),
				Status:     model.RoomStatusAvailable,
			})
		}
	}

	return f
}
