package vision

import "strings"

// VehicleTypes 提示词约束的车型枚举
var VehicleTypes = []string{"Sedan", "Hatchback", "SUV", "Truck", "Van", "Coupe", "Convertible", "Wagon", "Other"}

// IdentifyPrompt 固定指令；输出行格式与 vehicle.Parse 的标签对应
var IdentifyPrompt = buildPrompt(VehicleTypes)

func buildPrompt(types []string) string {
	last := len(types) - 1
	return "You are a vehicle recognition expert. Please identify the make, model, approximate production year, license plate (if visible), color, and vehicle type of the car in this image. " +
		"For vehicle type, categorize as: " + strings.Join(types[:last], ", ") + ", or " + types[last] + ". " +
		"Only return the following format:\n\n" +
		"Make: [Brand]\n" +
		"Model: [Model]\n" +
		"Year: [Estimated Year or Range]\n" +
		"Color: [Main color of the vehicle]\n" +
		"Vehicle Type: [" + strings.Join(types, "/") + "]\n" +
		"License Plate: [License plate number if visible, otherwise 'Not visible']"
}
